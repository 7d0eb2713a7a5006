package inference

import (
	"context"
	"encoding/json"
)

// Fallbacks used when the workflow does not name a disease or treatment.
const (
	UnknownDisease   = "Unknown Disease"
	NoRecommendation = "No recommendation available."
)

// DefaultImageInput is the input name the crop workflows read the photo from.
const DefaultImageInput = "image"

// Workflow binds a client to one hosted workflow.
type Workflow struct {
	client     *Client
	workspace  string
	id         string
	useCache   bool
	imageInput string
}

// NewWorkflow binds c to workspace/id. The service cache is on by default.
func NewWorkflow(c *Client, workspace, id string, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		client:     c,
		workspace:  workspace,
		id:         id,
		useCache:   true,
		imageInput: DefaultImageInput,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the workflow id.
func (w *Workflow) ID() string { return w.id }

// Run submits img as the workflow's image input.
func (w *Workflow) Run(ctx context.Context, img Image) (*Result, error) {
	return w.client.RunWorkflow(ctx, WorkflowRequest{
		Workspace:  w.workspace,
		WorkflowID: w.id,
		Images:     map[string]Image{w.imageInput: img},
		UseCache:   w.useCache,
	})
}

// Analyze runs the workflow and reduces the answer to a Diagnosis.
func (w *Workflow) Analyze(ctx context.Context, img Image) (Diagnosis, error) {
	res, err := w.Run(ctx, img)
	if err != nil {
		return Diagnosis{}, err
	}
	return Summarize(res), nil
}

// Diagnosis is the normalized answer returned to mobile clients.
type Diagnosis struct {
	Disease        string          `json:"output_detected_disease"`
	Recommendation string          `json:"output_treatment_recommendation"`
	FullResponse   json.RawMessage `json:"full_response"`
}

// Summarize picks disease and treatment from the top-level object, then from
// the first output, falling back to fixed placeholders.
func Summarize(res *Result) Diagnosis {
	d := Diagnosis{FullResponse: json.RawMessage("null")}
	if res == nil {
		d.Disease, d.Recommendation = UnknownDisease, NoRecommendation
		return d
	}
	if len(res.Raw) > 0 {
		d.FullResponse = res.Raw
	}

	var sources []map[string]any
	var top map[string]any
	if json.Unmarshal(res.Raw, &top) == nil && top != nil {
		sources = append(sources, top)
	}
	if len(res.Outputs) > 0 {
		if first, ok := res.Outputs[0].(map[string]any); ok {
			sources = append(sources, first)
		}
	}

	d.Disease = pick(sources, UnknownDisease, "output_detected_disease", "disease")
	d.Recommendation = pick(sources, NoRecommendation, "output_treatment_recommendation", "recommendation")
	return d
}

// pick returns the first non-empty string found under keys, in key order
// across sources.
func pick(sources []map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		for _, src := range sources {
			if s, ok := src[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}
