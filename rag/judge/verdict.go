package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Datasource is the router's verdict: which evidence source to consult first.
type Datasource string

const (
	// DatasourceVectorstore routes the question to the corpus retriever.
	DatasourceVectorstore Datasource = "vectorstore"
	// DatasourceWebSearch routes the question straight to web search.
	DatasourceWebSearch Datasource = "web_search"
)

// Error reports a grading or routing call that errored or returned an
// unparseable structure. It is never locally recovered; the run that hit it
// produces no answer.
type Error struct {
	Judge string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("judge %s failed: %v", e.Judge, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// scoreVerdict is the {"score": "yes"|"no"} shape shared by all graders.
type scoreVerdict struct {
	Score string `json:"score"`
}

// routeVerdict is the router's {"datasource": ...} shape.
type routeVerdict struct {
	Datasource string `json:"datasource"`
}

// stripCodeFence removes a surrounding markdown code fence that some models
// wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeStrict unmarshals raw into out, rejecting unknown keys and trailing
// content so a malformed verdict surfaces as a parse failure here rather than
// a key error later.
func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripCodeFence(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("unparseable verdict %q: %w", raw, err)
	}
	if dec.More() {
		return fmt.Errorf("trailing content after verdict %q", raw)
	}
	return nil
}

// parseScore validates the yes/no value domain of a grader verdict.
func parseScore(raw string) (bool, error) {
	var v scoreVerdict
	if err := decodeStrict(raw, &v); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v.Score)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("score %q is neither yes nor no", v.Score)
	}
}

// parseDatasource validates the router's verdict value domain.
func parseDatasource(raw string) (Datasource, error) {
	var v routeVerdict
	if err := decodeStrict(raw, &v); err != nil {
		return "", err
	}
	switch Datasource(strings.TrimSpace(v.Datasource)) {
	case DatasourceVectorstore:
		return DatasourceVectorstore, nil
	case DatasourceWebSearch:
		return DatasourceWebSearch, nil
	default:
		return "", fmt.Errorf("datasource %q is neither vectorstore nor web_search", v.Datasource)
	}
}
