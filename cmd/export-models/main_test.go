package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

type recordingRunner struct {
	args [][]string
}

func (r *recordingRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.args = append(r.args, args)
	return nil, nil
}

func TestRun(t *testing.T) {
	convey.Convey("Given two model files", t, func() {
		dir := t.TempDir()
		pest := filepath.Join(dir, "Pest_Detection_Model.pt")
		growth := filepath.Join(dir, "Plant_Growth_Stage_Model.pt")
		convey.So(os.WriteFile(pest, []byte("w"), 0o600), convey.ShouldBeNil)
		convey.So(os.WriteFile(growth, []byte("w"), 0o600), convey.ShouldBeNil)
		runner := &recordingRunner{}

		convey.Convey("When the models come from the environment", func() {
			t.Setenv("CROPLY_EXPORT_MODELS", pest+","+growth)
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), nil, &stdout, &stderr, runner)

			convey.Convey("Then both are exported to int8 TFLite", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(runner.args, convey.ShouldHaveLength, 2)
				convey.So(runner.args[0], convey.ShouldContain, "int8=True")
				convey.So(stdout.String(), convey.ShouldEndWith, "Model conversion to TFLite completed.\n")
			})
		})

		convey.Convey("When flags override the format", func() {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"-format", "onnx", "-int8=false", pest}, &stdout, &stderr, runner)

			convey.Convey("Then only the named model is exported", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(runner.args, convey.ShouldResemble, [][]string{{"export", "model=" + pest, "format=onnx"}})
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Model conversion to ONNX completed.")
			})
		})

		convey.Convey("When no models are configured", func() {
			t.Setenv("CROPLY_EXPORT_MODELS", "")
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), nil, &stdout, &stderr, runner)

			convey.So(code, convey.ShouldEqual, 1)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "no models configured")
			convey.So(stdout.Len(), convey.ShouldEqual, 0)
		})
	})
}
