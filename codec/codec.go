// Package codec embeds a JavaScript downlink encoder for network server device profiles
// and runs it to check it agrees with the Go encoder.
package codec

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/robertkrimen/otto"
	"github.com/viam-modules/nanotag/nanotag"
	"go.viam.com/rdk/logging"
)

// executionTimeout bounds a single script run.
const executionTimeout = 100 * time.Millisecond

//go:embed nanotag_encoder.js
var script string

var (
	errExecutionTimeout = errors.New("execution timeout")
	errUnexpectedOutput = errors.New("codec returned unexpected data type")
)

// Script returns the embedded encodeDownlink script.
func Script() string {
	return script
}

// MismatchError is returned by Verify when the script and Go encoder disagree.
type MismatchError struct {
	Want     nanotag.ConfigPayload
	GotBytes []byte
	GotPort  uint8
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("codec mismatch: expected %s on port %d, script produced %X on port %d",
		e.Want.Hex(), e.Want.Port, e.GotBytes, e.GotPort)
}

// Encode runs encodeDownlink from src against req and returns the bytes and fPort.
func Encode(ctx context.Context, src string, req nanotag.ConfigRequest) ([]byte, uint8, error) {
	input, err := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"recordPeriod": req.RecordPeriod,
			"reportPeriod": req.ReportPeriod,
			"timeUnit":     string(req.TimeUnit),
		},
	})
	if err != nil {
		return nil, 0, err
	}

	out, err := executeJS(ctx, src+"\n\nencodeDownlink(input);\n", string(input))
	if err != nil {
		return nil, 0, err
	}

	result, ok := out.(map[string]interface{})
	if !ok {
		return nil, 0, errUnexpectedOutput
	}

	if msgs := toStrings(result["errors"]); len(msgs) > 0 {
		return nil, 0, fmt.Errorf("codec rejected request: %s", strings.Join(msgs, "; "))
	}

	b, err := toBytes(result["bytes"])
	if err != nil {
		return nil, 0, err
	}
	port, ok := toInt(result["fPort"])
	if !ok || port < 1 || port > 255 {
		return nil, 0, fmt.Errorf("codec returned invalid fPort %v", result["fPort"])
	}
	return b, uint8(port), nil
}

// Verify runs the embedded script for req and checks it produces want.
func Verify(ctx context.Context, req nanotag.ConfigRequest, want nanotag.ConfigPayload, logger logging.Logger) error {
	got, port, err := Encode(ctx, script, req)
	if err != nil {
		return err
	}
	logger.Debugf("codec produced %X on port %d", got, port)

	if !bytes.Equal(got, want.Bytes[:]) || port != want.Port {
		return &MismatchError{Want: want, GotBytes: got, GotPort: port}
	}
	return nil
}

func executeJS(ctx context.Context, src, input string) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)
	vm.SetStackDepthLimit(32)

	obj, err := vm.Object("(" + input + ")")
	if err != nil {
		return nil, err
	}
	if err := vm.Set("input", obj); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		timer := time.NewTimer(executionTimeout)
		defer timer.Stop()
		select {
		case <-done:
			return
		case <-ctx.Done():
		case <-timer.C:
		}
		vm.Interrupt <- func() {
			panic(errExecutionTimeout)
		}
	}()

	var val otto.Value
	val, err = vm.Run(src)
	if err != nil {
		return nil, err
	}

	return val.Export()
}

// toBytes converts an exported JS array into bytes.
func toBytes(v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("codec returned no bytes: %w", errUnexpectedOutput)
	}

	b := make([]byte, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		n, ok := toInt(rv.Index(i).Interface())
		if !ok || n < 0 || n > 0xff {
			return nil, fmt.Errorf("codec returned invalid byte %v at index %d", rv.Index(i).Interface(), i)
		}
		b = append(b, byte(n))
	}
	return b, nil
}

func toInt(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

func toStrings(v interface{}) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, fmt.Sprint(rv.Index(i).Interface()))
	}
	return out
}
