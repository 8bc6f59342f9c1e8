package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"math-log-server/middleware"
	"math-log-server/models"
	"math-log-server/services"
)

const welcomeMessage = "Welcome to the Math Microservice! Use /docs to explore the API."

type MathHandler struct {
	math   *services.MathService
	logger *services.OperationLogger
}

func NewMathHandler(math *services.MathService, logger *services.OperationLogger) *MathHandler {
	return &MathHandler{math: math, logger: logger}
}

// Root godoc
// @Summary Service info
// @Tags info
// @Produce json
// @Success 200 {object} models.Envelope{data=models.InfoResponse}
// @Router / [get]
func (h *MathHandler) Root(c *fiber.Ctx) error {
	return respond(c, models.InfoResponse{Info: welcomeMessage})
}

// Pow godoc
// @Summary Raise base to exponent
// @Description Computes base^exponent with floating-point semantics and logs the request
// @Tags math
// @Accept json
// @Produce json
// @Param payload body models.PowRequest true "Base and exponent"
// @Success 200 {object} models.Envelope{data=models.ResultResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/pow [post]
func (h *MathHandler) Pow(c *fiber.Ctx) error {
	var req models.PowRequest
	if err := decodeBody(c, &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	if req.Base == nil || req.Exponent == nil {
		return errorResponse(c, fiber.StatusBadRequest, "base and exponent are required")
	}

	result, err := h.math.Power(*req.Base, *req.Exponent)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	formatted := services.FormatFloat(result)
	if err := h.log(c, models.OperationPow, formatted); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return respond(c, models.ResultResponse{Result: json.Number(formatted)})
}

// Fibonacci godoc
// @Summary N-th Fibonacci number
// @Description Returns fib(n) with fib(0)=0 and fib(1)=1 and logs the request
// @Tags math
// @Accept json
// @Produce json
// @Param payload body models.NumberRequest true "Index n"
// @Success 200 {object} models.Envelope{data=models.ResultResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/fibonacci [post]
func (h *MathHandler) Fibonacci(c *fiber.Ctx) error {
	n, err := parseN(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.math.Fibonacci(n)
	if err != nil {
		return mathError(c, err)
	}

	if err := h.log(c, models.OperationFibonacci, result.String()); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return respond(c, models.ResultResponse{Result: result})
}

// Factorial godoc
// @Summary Factorial of n
// @Description Returns n! exactly and logs the request
// @Tags math
// @Accept json
// @Produce json
// @Param payload body models.NumberRequest true "Operand n"
// @Success 200 {object} models.Envelope{data=models.ResultResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/factorial [post]
func (h *MathHandler) Factorial(c *fiber.Ctx) error {
	n, err := parseN(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.math.Factorial(n)
	if err != nil {
		return mathError(c, err)
	}

	if err := h.log(c, models.OperationFactorial, result.String()); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return respond(c, models.ResultResponse{Result: result})
}

// log records the raw request body against the computed result
func (h *MathHandler) log(c *fiber.Ctx, operation, result string) error {
	_, err := h.logger.LogRequest(middleware.GetXRayContext(c), operation, string(c.Body()), result)
	if err != nil {
		slog.Error("failed to persist request log", "operation", operation, "error", err)
	}
	return err
}

func parseN(c *fiber.Ctx) (int64, error) {
	var req models.NumberRequest
	if err := decodeBody(c, &req); err != nil {
		return 0, err
	}
	if req.N == nil {
		return 0, errors.New("n is required")
	}
	if *req.N < 0 {
		return 0, errors.New("n must be non-negative")
	}
	return int64(*req.N), nil
}

// decodeBody parses the JSON body regardless of Content-Type. Wrong field
// types, fractional integers and non-object bodies are rejected.
func decodeBody(c *fiber.Ctx, dest interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return errors.New("invalid value for field " + typeErr.Field)
		}
		return errors.New("invalid request body")
	}
	return nil
}

func mathError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidArgument) {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	return errorResponse(c, fiber.StatusInternalServerError, err.Error())
}
