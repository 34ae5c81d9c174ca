package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/workhub/intranet-assistant/internal/core/ports"
)

type streamFragment struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateStream opens a streaming generation request and forwards each
// fragment's text delta in arrival order. A corrupt NDJSON line is logged
// and skipped; it does not terminate the stream.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) (<-chan ports.GenerationChunk, error) {
	body, err := json.Marshal(g.client.generatePayload(prompt, true))
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.client.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.genClient.Do(req)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("generate", fmt.Errorf("ollama generate request: %w", err))
	}
	if resp.StatusCode >= 300 {
		err := newHTTPStatusError("generate", resp)
		resp.Body.Close()
		return nil, wrapTemporaryIfNeeded("generate", err)
	}

	out := make(chan ports.GenerationChunk, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		// The consumer may stop draining mid-stream (caller disconnect).
		// An unconditional send would park this goroutine forever once the
		// buffer fills and leak the response body with it.
		send := func(chunk ports.GenerationChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				send(ports.GenerationChunk{Done: true, Err: ctx.Err()})
				return
			}

			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var fragment streamFragment
			if err := json.Unmarshal(line, &fragment); err != nil {
				slog.Warn("skip_malformed_stream_fragment", "error", err)
				continue
			}

			if fragment.Response != "" {
				if !send(ports.GenerationChunk{Content: fragment.Response}) {
					return
				}
			}
			if fragment.Done {
				send(ports.GenerationChunk{Done: true})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(ports.GenerationChunk{Done: true, Err: fmt.Errorf("read generate stream: %w", err)})
			return
		}
		// Upstream closed without a done fragment; treat as complete.
		send(ports.GenerationChunk{Done: true})
	}()

	return out, nil
}
