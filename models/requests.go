package models

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
)

// PowRequest represents the request body for POST /api/pow.
// Pointers distinguish a missing field from an explicit zero.
type PowRequest struct {
	Base     *float64 `json:"base"`
	Exponent *float64 `json:"exponent"`
}

// NumberRequest represents the request body for POST /api/fibonacci and POST /api/factorial
type NumberRequest struct {
	N *Integer `json:"n" swaggertype:"integer"`
}

// Integer is an int64 that also accepts integral JSON floats such as 10.0
// or 1e2. Strings, fractions and out-of-range values are rejected.
type Integer int64

func (i *Integer) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}

	num, ok := v.(json.Number)
	if !ok {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(int64(0))}
	}
	if n, err := num.Int64(); err == nil {
		*i = Integer(n)
		return nil
	}

	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return &json.UnmarshalTypeError{Value: "number " + string(data), Type: reflect.TypeOf(int64(0))}
	}
	*i = Integer(f)
	return nil
}

// Envelope wraps every successful response body
type Envelope struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the body of every 4xx/5xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// InfoResponse is the payload of GET /
type InfoResponse struct {
	Info string `json:"info"`
}

// ResultResponse is the payload of the math endpoints.
// Result is a float for pow and an arbitrary-precision integer otherwise.
type ResultResponse struct {
	Result interface{} `json:"result" swaggertype:"number"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Stream   string `json:"stream"`
}
