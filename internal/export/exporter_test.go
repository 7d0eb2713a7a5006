package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/croply-ai/croply/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and fails on the configured model.
type fakeRunner struct {
	calls  []call
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failOn != "" && args[1] == "model="+f.failOn {
		return []byte("RuntimeError: tflite conversion failed"), errors.New("exit status 1")
	}
	return []byte("Export complete"), nil
}

func writeModel(dir, name string) string {
	p := filepath.Join(dir, name)
	So(os.WriteFile(p, []byte("weights"), 0o600), ShouldBeNil)
	return p
}

func TestExport(t *testing.T) {
	Convey("Given two trained models", t, func() {
		dir := t.TempDir()
		pest := writeModel(dir, "Pest_Detection_Model.pt")
		growth := writeModel(dir, "Plant_Growth_Stage_Model.pt")
		runner := &fakeRunner{}
		exp := export.New(export.WithRunner(runner), export.WithCommand("yolo"))

		Convey("When both are exported", func() {
			artifacts, err := exp.Export(context.Background(), []string{pest, growth})

			Convey("Then each is converted to int8 tflite in order", func() {
				So(err, ShouldBeNil)
				So(runner.calls, ShouldHaveLength, 2)
				So(runner.calls[0].name, ShouldEqual, "yolo")
				So(runner.calls[0].args, ShouldResemble, []string{"export", "model=" + pest, "format=tflite", "int8=True"})
				So(runner.calls[1].args[1], ShouldEqual, "model="+growth)
			})

			Convey("Then the conventional output paths are reported", func() {
				So(artifacts, ShouldHaveLength, 2)
				So(artifacts[0].Output, ShouldEqual,
					filepath.Join(dir, "Pest_Detection_Model_saved_model", "Pest_Detection_Model_int8.tflite"))
				So(artifacts[1].Format, ShouldEqual, export.FormatTFLite)
			})
		})

		Convey("When one model path does not exist", func() {
			_, err := exp.Export(context.Background(), []string{pest, filepath.Join(dir, "missing.pt")})

			Convey("Then nothing is exported", func() {
				So(errors.Is(err, export.ErrModelLoad), ShouldBeTrue)
				So(runner.calls, ShouldBeEmpty)
			})
		})

		Convey("When a path is not a model file", func() {
			other := writeModel(dir, "notes.txt")
			_, err := exp.Export(context.Background(), []string{other})

			So(errors.Is(err, export.ErrModelLoad), ShouldBeTrue)
			So(runner.calls, ShouldBeEmpty)
		})

		Convey("When the first export fails", func() {
			runner.failOn = pest
			artifacts, err := exp.Export(context.Background(), []string{pest, growth})

			Convey("Then the run aborts with the tool output", func() {
				So(errors.Is(err, export.ErrExportFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "tflite conversion failed")
				So(artifacts, ShouldBeEmpty)
				So(runner.calls, ShouldHaveLength, 1)
			})
		})

		Convey("When no models are configured", func() {
			_, err := exp.Export(context.Background(), nil)
			So(errors.Is(err, export.ErrNoModels), ShouldBeTrue)
		})

		Convey("When the format is unsupported", func() {
			exp := export.New(export.WithRunner(runner), export.WithFormat("coreml-ish"))
			_, err := exp.Export(context.Background(), []string{pest})
			So(errors.Is(err, export.ErrUnsupportedFormat), ShouldBeTrue)
			So(runner.calls, ShouldBeEmpty)
		})

		Convey("When quantization is off and the format is onnx", func() {
			exp := export.New(export.WithRunner(runner), export.WithFormat(export.FormatONNX), export.WithInt8(false))
			artifacts, err := exp.Export(context.Background(), []string{pest})

			So(err, ShouldBeNil)
			So(runner.calls[0].args, ShouldResemble, []string{"export", "model=" + pest, "format=onnx"})
			So(artifacts[0].Output, ShouldEqual, filepath.Join(dir, "Pest_Detection_Model.onnx"))
		})
	})
}

func TestOutputPath(t *testing.T) {
	Convey("Given a model under models/", t, func() {
		src := filepath.Join("models", "pest.pt")

		So(export.OutputPath(src, export.FormatTFLite, false), ShouldEqual, filepath.Join("models", "pest_saved_model", "pest_float32.tflite"))
		So(export.OutputPath(src, export.FormatTorchScript, false), ShouldEqual, filepath.Join("models", "pest.torchscript"))
		So(export.OutputPath(src, export.FormatOpenVINO, true), ShouldEqual, filepath.Join("models", "pest_openvino_model")+string(filepath.Separator))
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		f, err := export.ParseFormat(" TFLite ")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, export.FormatTFLite)

		_, err = export.ParseFormat("pb")
		So(errors.Is(err, export.ErrUnsupportedFormat), ShouldBeTrue)
	})
}
