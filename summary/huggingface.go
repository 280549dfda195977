package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultInferenceURL = "https://router.huggingface.co/hf-inference/models"
	defaultHubURL       = "https://huggingface.co/api/models"
	summarizationTask   = "summarization"
)

// HuggingFace calls the hosted inference API for a seq2seq checkpoint.
type HuggingFace struct {
	base
	endpoint string
	hubURL   string
	apiKey   string
	client   *http.Client
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Truncation                string `json:"truncation"`
	CleanUpTokenizationSpaces bool   `json:"clean_up_tokenization_spaces"`
}

type inferenceError struct {
	Error string `json:"error"`
}

func newHuggingFace(b base, endpoint, apiKey string, client *http.Client) *HuggingFace {
	if client == nil {
		client = &http.Client{}
	}
	return &HuggingFace{
		base:     b,
		endpoint: strings.TrimRight(orDefault(endpoint, defaultInferenceURL), "/"),
		hubURL:   defaultHubURL,
		apiKey:   apiKey,
		client:   client,
	}
}

func (h *HuggingFace) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel, text, err := h.prepare(ctx, text)
	if err != nil {
		return "", err
	}
	defer cancel()

	payload, err := json.Marshal(inferenceRequest{
		Inputs: text,
		Parameters: inferenceParameters{
			Truncation:                "only_first",
			CleanUpTokenizationSpaces: false,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding inference request")
	}

	body, err := h.do(ctx, http.MethodPost, h.endpoint+"/"+h.checkpoint, payload)
	if err != nil {
		return "", errors.Wrap(err, "calling inference API")
	}

	var results []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		var apiErr inferenceError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", errors.Errorf("inference API error: %s", apiErr.Error)
		}
		return "", errors.Wrap(err, "decoding inference response")
	}
	if len(results) == 0 {
		return "", errors.New("inference API returned no summary")
	}
	return results[0].SummaryText, nil
}

// Load resolves the checkpoint metadata and rejects models that are not
// summarization pipelines.
func (h *HuggingFace) Load(ctx context.Context) error {
	body, err := h.do(ctx, http.MethodGet, h.hubURL+"/"+h.checkpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "resolving checkpoint %s", h.checkpoint)
	}

	var info struct {
		ID          string `json:"id"`
		PipelineTag string `json:"pipeline_tag"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return errors.Wrap(err, "decoding model metadata")
	}
	if info.PipelineTag != summarizationTask {
		return errors.Errorf("checkpoint %s is a %q model, not %s", h.checkpoint, info.PipelineTag, summarizationTask)
	}

	logrus.WithFields(logrus.Fields{
		"checkpoint": h.checkpoint,
		"pipeline":   info.PipelineTag,
	}).Info("Summarization checkpoint resolved")
	return nil
}

func (h *HuggingFace) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr inferenceError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, errors.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, errors.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
