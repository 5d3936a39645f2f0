package zhipu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adrianliechti/docscan/pkg/job"
	"github.com/adrianliechti/docscan/pkg/recognizer"
)

var _ recognizer.Provider = &Client{}

type Client struct {
	client *http.Client

	url   string
	token string

	model string
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid url")
	}

	c := &Client{
		client: http.DefaultClient,

		url: url,

		model: "glm-ocr",
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *Client) Recognize(ctx context.Context, file recognizer.File, options *recognizer.RecognizeOptions) (*recognizer.Result, error) {
	if options == nil {
		options = new(recognizer.RecognizeOptions)
	}

	if !isSupported(file) {
		return nil, recognizer.ErrUnsupported
	}

	dataurl := "data:" + file.ContentType + ";base64," + base64.StdEncoding.EncodeToString(file.Content)

	body := Request{
		Model: c.model,
		File:  dataurl,
	}

	data, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, recognizer.Transient(err, 0)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp, options.Label)
	}

	data, err = io.ReadAll(resp.Body)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, recognizer.Transient(fmt.Errorf("read response (%s): %w", options.Label, err), 0)
	}

	var response Response

	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("decode response (%s): %w", options.Label, err)
	}

	if strings.TrimSpace(response.Markdown) == "" {
		return nil, recognizer.ErrEmptyResult
	}

	return convertResult(&response), nil
}

func convertResult(response *Response) *recognizer.Result {
	result := &recognizer.Result{
		Model: response.Model,
		Text:  response.Markdown,
	}

	if response.Usage != nil {
		result.Usage = &job.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return result
}

func isSupported(file recognizer.File) bool {
	if file.Name != "" {
		ext := strings.ToLower(path.Ext(file.Name))

		if slices.Contains(SupportedExtensions, ext) {
			return true
		}
	}

	if file.ContentType != "" {
		if slices.Contains(SupportedMimeTypes, file.ContentType) {
			return true
		}
	}

	return false
}

func convertError(resp *http.Response, label string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := http.StatusText(resp.StatusCode)

	var body ErrorResponse

	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		message = body.Error.Message

		if body.Error.Code != "" {
			message = body.Error.Code + " " + message
		}
	} else if text := strings.TrimSpace(string(data)); text != "" {
		message = text
	}

	err := fmt.Errorf("api request failed [%d] (%s): %s", resp.StatusCode, label, message)

	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return recognizer.Transient(err, parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	return err
}

func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(val); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}
