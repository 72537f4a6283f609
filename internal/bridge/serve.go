// File: internal/bridge/serve.go
package bridge

import (
	"bufio"
	"context"
	"io"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// maxLineSize bounds a single request line. Large documents are opened
// inline, so the limit is generous.
const maxLineSize = 16 * 1024 * 1024

// Serve runs a newline-delimited JSON command loop: one CommandRequest
// per input line, one CommandResponse per output line. It returns when
// the input is exhausted or the context is cancelled. The caller is
// responsible for closing the reader to unblock a cancelled loop.
func (r *Router) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			// Copy: the scanner reuses its buffer between calls.
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- err
		}
	}()

	writer := bufio.NewWriter(out)
	enc := json.NewEncoder(writer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}

			resp := r.handleLine(line)
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if err := writer.Flush(); err != nil {
				return err
			}
		}
	}
}

// handleLine decodes one request line and dispatches it. Malformed JSON
// produces an error response rather than terminating the loop.
func (r *Router) handleLine(line []byte) CommandResponse {
	var req CommandRequest
	if err := json.Unmarshal(line, &req); err != nil {
		r.log.Warn("Malformed request line", zap.Error(err))
		return CommandResponse{
			Status: "error",
			Error:  "invalid request: " + err.Error(),
		}
	}
	return r.Dispatch(req)
}
