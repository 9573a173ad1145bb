package lda

import "github.com/example/junai/internal/openai"

// Citation references one file produced inside the remote execution container.
type Citation struct {
	ContainerID string
	FileID      string
	Filename    string
}

// ExtractCitations walks a generation response and collects every container
// file citation, deduplicated by (container_id, file_id) with first-seen order
// and filename winning. Items and annotations of other types are skipped; the
// response schema is not fully under our control, so an unrecognized shape is
// never an error.
func ExtractCitations(resp *openai.Response) []Citation {
	if resp == nil {
		return nil
	}

	type key struct{ container, file string }
	seen := make(map[key]struct{})
	var out []Citation

	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			for _, ann := range part.Annotations {
				if ann.Type != "container_file_citation" {
					continue
				}
				if ann.ContainerID == "" || ann.FileID == "" {
					continue
				}
				k := key{ann.ContainerID, ann.FileID}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				name := ann.Filename
				if name == "" {
					name = ann.FileID
				}
				out = append(out, Citation{
					ContainerID: ann.ContainerID,
					FileID:      ann.FileID,
					Filename:    name,
				})
			}
		}
	}
	return out
}
