package model

import (
	"encoding/json"
	"fmt"
)

// ImageSource is either Persisted (already stored by the backend) or
// Pending (staged in this session, uploaded on submit).
type ImageSource interface {
	imageSource()
}

type Persisted struct {
	ID         string
	RemotePath string
}

type Pending struct {
	Handle string
}

func (Persisted) imageSource() {}
func (Pending) imageSource()   {}

type ImageEntry struct {
	Source ImageSource
	Alt    string
}

func (e ImageEntry) PersistedID() (string, bool) {
	if p, ok := e.Source.(Persisted); ok && p.ID != "" {
		return p.ID, true
	}
	return "", false
}

type imageJSON struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	URL    string `json:"url,omitempty"`
	Handle string `json:"handle,omitempty"`
	Alt    string `json:"alt"`
}

func (e ImageEntry) MarshalJSON() ([]byte, error) {
	out := imageJSON{Alt: e.Alt}
	switch src := e.Source.(type) {
	case Persisted:
		out.Kind, out.ID, out.URL = "persisted", src.ID, src.RemotePath
	case Pending:
		out.Kind, out.Handle = "pending", src.Handle
	default:
		return nil, fmt.Errorf("image entry has no source")
	}
	return json.Marshal(out)
}

func (e *ImageEntry) UnmarshalJSON(b []byte) error {
	var in imageJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	e.Alt = in.Alt
	switch in.Kind {
	case "persisted":
		e.Source = Persisted{ID: in.ID, RemotePath: in.URL}
	case "pending":
		e.Source = Pending{Handle: in.Handle}
	default:
		return fmt.Errorf("unknown image kind %q", in.Kind)
	}
	return nil
}
