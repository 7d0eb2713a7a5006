package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	service "github.com/croply-ai/croply/internal/app"
	"github.com/croply-ai/croply/internal/config"
	"github.com/croply-ai/croply/internal/export"
	"github.com/croply-ai/croply/internal/inference"
	"github.com/croply-ai/croply/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without an API key", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then it should refuse to start", func() {
				So(errors.Is(err, inference.ErrMissingAPIKey), ShouldBeTrue)
			})
		})

		Convey("When analyzing before start", func() {
			_, err := svc.Analyze(context.Background(), inference.ImageFromBytes("a.jpg", []byte{1}))

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service bound to a fake workflow", t, func() {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"outputs":[{"output_detected_disease":"Early Blight","output_treatment_recommendation":"Rotate crops."}]}`))
		}))
		defer srv.Close()

		cfg := config.New()
		cfg.InferenceAPIURL = srv.URL
		cfg.InferenceAPIKey = "test-key"

		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When analyzing an image", func() {
			d, err := svc.Analyze(ctx, inference.ImageFromBytes("leaf.jpg", []byte{0xff, 0xd8}))

			Convey("Then the configured workflow is called", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/croply-ai/workflows/croply-ai-final-2")
				So(d.Disease, ShouldEqual, "Early Blight")
				So(d.Recommendation, ShouldEqual, "Rotate crops.")
			})
		})

		Convey("When the service is stopped", func() {
			svc.Stop()
			_, err := svc.Analyze(ctx, inference.ImageFromBytes("leaf.jpg", []byte{1}))

			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestBuilders(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := config.New()

		Convey("When building the reader", func() {
			r, err := service.NewReader(cfg, logger.Nop())

			Convey("Then it targets the greenhouse endpoint", func() {
				So(err, ShouldBeNil)
				So(r.Endpoint(), ShouldEqual, "https://oracleapex.com/ords/g3_data/iot/greenhouse/")
			})
		})

		Convey("When building the exporter", func() {
			e, err := service.NewExporter(cfg, logger.Nop())

			So(err, ShouldBeNil)
			So(e.Format(), ShouldEqual, export.FormatTFLite)
		})

		Convey("When the export format is unknown", func() {
			cfg.ExportFormat = "pb"
			_, err := service.NewExporter(cfg, logger.Nop())

			So(errors.Is(err, export.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When building a workflow with a key", func() {
			cfg.InferenceAPIKey = "k"
			wf, err := service.NewWorkflow(cfg, logger.Nop())

			So(err, ShouldBeNil)
			So(wf.ID(), ShouldEqual, "croply-ai-final-2")
		})
	})
}
