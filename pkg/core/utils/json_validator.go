package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrUnparsable is returned when no decoding strategy accepts the input
var ErrUnparsable = errors.New("input is not parsable as JSON or HJSON")

// Strategy names the decoder that accepted an input
type Strategy string

const (
	StrategyJSON     Strategy = "json"
	StrategyRepaired Strategy = "repaired"
	StrategyHJSON    Strategy = "hjson"
)

// RepairJSON fixes common damage in machine-written JSON dumps using
// github.com/RealAlexandreAI/json-repair:
// - Unclosed arrays/objects (truncated files)
// - Trailing commas
// - Single quotes and unquoted keys
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("failed to repair JSON: %w", err)
	}
	return repaired, nil
}

// DecodeHJSON decodes Human JSON (comments, unquoted keys and strings, optional commas)
// into v. Plain JSON is valid HJSON.
func DecodeHJSON(data []byte, v interface{}) error {
	if err := hjson.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse HJSON: %w", err)
	}
	return nil
}

// SmartDecode tries, in order:
// 1. Standard JSON
// 2. JSON repair followed by standard JSON
// 3. HJSON (most lenient)
//
// and reports which one succeeded.
func SmartDecode(data []byte, v interface{}) (Strategy, error) {
	if err := json.Unmarshal(data, v); err == nil {
		return StrategyJSON, nil
	}

	if repaired, err := RepairJSON(string(data)); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return StrategyRepaired, nil
		}
	}

	if err := DecodeHJSON(data, v); err == nil {
		return StrategyHJSON, nil
	}

	return "", ErrUnparsable
}
