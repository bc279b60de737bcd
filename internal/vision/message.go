// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package vision

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Message types
const (
	MsgLaneSample uint8 = 0x01
)

// Lane sample payload keys
const (
	keyOffset    = 0
	keyCurvature = 1
)

// LaneSample is one lane observation sent by the vision process
type LaneSample struct {
	Offset    float64 // normalized lane center, -1 (left) to 1 (right)
	Curvature float64 // 1/m
}

// EncodeLaneSample builds the CBOR message [MsgLaneSample, {0: offset, 1: curvature}]
func EncodeLaneSample(s LaneSample) ([]byte, error) {
	msg := []interface{}{
		uint64(MsgLaneSample),
		map[int]interface{}{
			keyOffset:    s.Offset,
			keyCurvature: s.Curvature,
		},
	}
	data, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lane sample: %w", err)
	}
	return data, nil
}

// DecodeLaneSample parses a lane sample message
func DecodeLaneSample(data []byte) (LaneSample, error) {
	if len(data) == 0 {
		return LaneSample{}, fmt.Errorf("empty CBOR payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return LaneSample{}, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return LaneSample{}, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	msgType, ok := msg[0].(uint64)
	if !ok {
		return LaneSample{}, fmt.Errorf("expected uint for message type, got %T", msg[0])
	}
	if msgType != uint64(MsgLaneSample) {
		return LaneSample{}, fmt.Errorf("unexpected message type 0x%02X", msgType)
	}

	payload, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return LaneSample{}, fmt.Errorf("expected map payload, got %T", msg[1])
	}

	offset, err := floatField(payload, keyOffset)
	if err != nil {
		return LaneSample{}, err
	}
	curvature, err := floatField(payload, keyCurvature)
	if err != nil {
		return LaneSample{}, err
	}
	return LaneSample{Offset: offset, Curvature: curvature}, nil
}

// floatField reads a numeric payload value; CBOR may carry it as a float or
// as an integer
func floatField(payload map[interface{}]interface{}, key int) (float64, error) {
	for k, v := range payload {
		var kk int
		switch kt := k.(type) {
		case uint64:
			kk = int(kt)
		case int64:
			kk = int(kt)
		default:
			return 0, fmt.Errorf("expected integer map key, got %T", k)
		}
		if kk != key {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case uint64:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return 0, fmt.Errorf("field %d: expected number, got %T", key, v)
		}
	}
	return 0, fmt.Errorf("missing field %d", key)
}
