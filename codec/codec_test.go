package codec

import (
	"context"
	"errors"
	"testing"

	"github.com/viam-modules/nanotag/nanotag"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"
)

func TestEncodeMatchesGo(t *testing.T) {
	ctx := context.Background()

	tests := []nanotag.ConfigRequest{
		{RecordPeriod: 300, ReportPeriod: 300, TimeUnit: nanotag.Seconds},
		{RecordPeriod: 5, ReportPeriod: 10, TimeUnit: nanotag.Minutes},
		{RecordPeriod: 1, ReportPeriod: 1, TimeUnit: nanotag.Minutes},
		{RecordPeriod: 65535, ReportPeriod: 65535, TimeUnit: nanotag.Seconds},
		{RecordPeriod: 10, ReportPeriod: 30, TimeUnit: nanotag.Seconds},
		{RecordPeriod: 256, ReportPeriod: 512, TimeUnit: nanotag.Minutes},
	}

	for _, req := range tests {
		want, err := req.Encode()
		test.That(t, err, test.ShouldBeNil)

		got, port, err := Encode(ctx, Script(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want.Bytes[:])
		test.That(t, port, test.ShouldEqual, want.Port)
	}
}

func TestEncodeRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         nanotag.ConfigRequest
		expectedErr string
	}{
		{
			name:        "record zero",
			req:         nanotag.ConfigRequest{RecordPeriod: 0, ReportPeriod: 10, TimeUnit: nanotag.Seconds},
			expectedErr: "record period must be between 1 and 65535",
		},
		{
			name:        "record too large",
			req:         nanotag.ConfigRequest{RecordPeriod: 65536, ReportPeriod: 65536, TimeUnit: nanotag.Seconds},
			expectedErr: "record period must be between 1 and 65535",
		},
		{
			name:        "report too large",
			req:         nanotag.ConfigRequest{RecordPeriod: 1, ReportPeriod: 65536, TimeUnit: nanotag.Seconds},
			expectedErr: "report period must be between 1 and 65535",
		},
		{
			name:        "bad unit",
			req:         nanotag.ConfigRequest{RecordPeriod: 1, ReportPeriod: 1, TimeUnit: "hours"},
			expectedErr: "time unit must be",
		},
		{
			name:        "unit names are case sensitive",
			req:         nanotag.ConfigRequest{RecordPeriod: 5, ReportPeriod: 10, TimeUnit: "MINUTES"},
			expectedErr: "time unit must be",
		},
		{
			name:        "ordering",
			req:         nanotag.ConfigRequest{RecordPeriod: 100, ReportPeriod: 50, TimeUnit: nanotag.Seconds},
			expectedErr: "report period cannot be shorter than record period",
		},
		{
			name:        "divisibility",
			req:         nanotag.ConfigRequest{RecordPeriod: 100, ReportPeriod: 150, TimeUnit: nanotag.Seconds},
			expectedErr: "report period must be a multiple of record period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Encode(ctx, Script(), tt.req)
			test.That(t, got, test.ShouldBeNil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tt.expectedErr)

			// the Go encoder rejects the same requests
			_, err = tt.req.Encode()
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}

func TestEncodeBadScripts(t *testing.T) {
	ctx := context.Background()
	req := nanotag.ConfigRequest{RecordPeriod: 1, ReportPeriod: 1, TimeUnit: nanotag.Seconds}

	t.Run("non object result", func(t *testing.T) {
		_, _, err := Encode(ctx, "function encodeDownlink(input) { return 5; }", req)
		test.That(t, err, test.ShouldBeError, errUnexpectedOutput)
	})

	t.Run("byte out of range", func(t *testing.T) {
		src := "function encodeDownlink(input) { return { bytes: [1, 300], fPort: 29 }; }"
		_, _, err := Encode(ctx, src, req)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid byte")
	})

	t.Run("missing port", func(t *testing.T) {
		src := "function encodeDownlink(input) { return { bytes: [1, 2, 3, 4] }; }"
		_, _, err := Encode(ctx, src, req)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid fPort")
	})

	t.Run("syntax error", func(t *testing.T) {
		_, _, err := Encode(ctx, "function encodeDownlink(input) {", req)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("timeout", func(t *testing.T) {
		src := "function encodeDownlink(input) { while (true) {} }"
		_, _, err := Encode(ctx, src, req)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, errExecutionTimeout.Error())
	})

	t.Run("canceled context", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		src := "function encodeDownlink(input) { while (true) {} }"
		_, _, err := Encode(cancelCtx, src, req)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	req, err := nanotag.ResolvePreset("5min")
	test.That(t, err, test.ShouldBeNil)
	want, err := req.Encode()
	test.That(t, err, test.ShouldBeNil)

	t.Run("agrees", func(t *testing.T) {
		test.That(t, Verify(ctx, req, want, logger), test.ShouldBeNil)
	})

	t.Run("mismatch", func(t *testing.T) {
		wrong := want
		wrong.Port = nanotag.MinutesPort
		err := Verify(ctx, req, wrong, logger)
		test.That(t, err, test.ShouldNotBeNil)

		var mismatch *MismatchError
		test.That(t, errors.As(err, &mismatch), test.ShouldBeTrue)
		test.That(t, mismatch.GotPort, test.ShouldEqual, uint8(nanotag.SecondsPort))
		test.That(t, err.Error(), test.ShouldContainSubstring, "012C012C")
	})
}

func TestScript(t *testing.T) {
	test.That(t, Script(), test.ShouldContainSubstring, "function encodeDownlink(input)")
}
