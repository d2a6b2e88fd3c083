package proxy

import (
	"bufio"
	"io"
	"net/http"
)

// streamSSE copies src to dst line by line, flushing after every line so the
// client sees each chunk as soon as it arrives, while returning every line
// read (trailing newline stripped) for the capture log. A line may be a
// `data:`/`event:` field, a `:`-prefixed comment, or empty (the SSE message
// terminator); classification is left to the normaliser.
func streamSSE(dst io.Writer, flusher http.Flusher, src io.Reader) ([]string, error) {
	reader := bufio.NewReader(src)
	var lines []string

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if _, werr := io.WriteString(dst, line); werr != nil {
				return lines, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
			lines = append(lines, stripNewline(line))
		}
		if err != nil {
			if err == io.EOF {
				return lines, nil
			}
			return lines, err
		}
	}
}

func stripNewline(line string) string {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n]
}
