package remote

import "io"

// ProgressReader wraps a reader and reports cumulative bytes read to a
// ProgressFunc. Providers wrap their request bodies with it so progress is
// observed exactly where the transport consumes bytes.
type ProgressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	onProgress ProgressFunc
}

// NewProgressReader wraps r. onProgress may be nil.
func NewProgressReader(r io.Reader, total int64, onProgress ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, onProgress: onProgress}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.sent, p.total)
		}
	}
	return n, err
}
