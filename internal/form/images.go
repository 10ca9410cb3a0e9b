package form

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// LocalRefScheme prefixes the reference a pending image carries until the
// backend has stored it.
const LocalRefScheme = "blob:"

// LocalRef is the session-local reference for a pending image.
func LocalRef(handle string) string { return LocalRefScheme + handle }

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// StageUpload checks an uploaded file and turns it into a StagedFile with a
// fresh handle. maxBytes <= 0 disables the size check.
func StageUpload(filename string, data []byte, maxBytes int64) (model.StagedFile, error) {
	if len(data) == 0 {
		return model.StagedFile{}, apperr.InvalidErr(fmt.Sprintf("%s is empty", filename), nil)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return model.StagedFile{}, apperr.InvalidErr(
			fmt.Sprintf("%s is larger than %s", filename, sizeLabel(maxBytes)), nil)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return model.StagedFile{}, apperr.InvalidErr(
			fmt.Sprintf("%s is not a supported image (%s)", filename, mt.String()), nil)
	}
	return model.StagedFile{
		Handle:      uuid.NewString() + safeExt(filename, mt.Extension()),
		Filename:    filename,
		ContentType: mt.String(),
		Data:        data,
	}, nil
}

// sizeLabel renders n bytes as MB, KB or bytes with at most one decimal.
func sizeLabel(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(math.Round(float64(n)/(1<<20)*10)/10, 'f', -1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatFloat(math.Round(float64(n)/(1<<10)*10)/10, 'f', -1, 64) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

func safeExt(filename, detected string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return detected
	}
}

// AddImages appends staged files to the image list. If nothing is primary
// yet, the first added image becomes primary.
func (f *Form) AddImages(files ...model.StagedFile) []string {
	d := &f.s.Draft
	before := len(d.Images)
	handles := make([]string, 0, len(files))
	for _, file := range files {
		if file.Handle == "" {
			file.Handle = uuid.NewString()
		}
		f.s.Files = append(f.s.Files, file)
		d.Images = append(d.Images, model.ImageEntry{Source: model.Pending{Handle: file.Handle}})
		handles = append(handles, file.Handle)
	}
	if d.PrimaryImageIndex == nil && len(files) > 0 {
		idx := before
		d.PrimaryImageIndex = &idx
	}
	f.touch("images")
	f.s.UpdatedAt = f.now()
	return handles
}

// RemoveImage drops image i. A persisted image is queued for deletion on the
// backend; a pending one just loses its staged file.
func (f *Form) RemoveImage(i int) error {
	d := &f.s.Draft
	if i < 0 || i >= len(d.Images) {
		return apperr.NotFoundErr(fmt.Sprintf("Image %d does not exist", i))
	}

	if id, ok := d.Images[i].PersistedID(); ok && !contains(f.s.Deletions, id) {
		f.s.Deletions = append(f.s.Deletions, id)
	}
	if src, ok := d.Images[i].Source.(model.Pending); ok {
		f.dropFile(src.Handle)
	}

	d.Images = append(d.Images[:i:i], d.Images[i+1:]...)

	if p := d.PrimaryImageIndex; p != nil {
		switch {
		case *p == i && len(d.Images) > 0:
			zero := 0
			d.PrimaryImageIndex = &zero
		case *p == i:
			d.PrimaryImageIndex = nil
		case *p > i:
			shifted := *p - 1
			d.PrimaryImageIndex = &shifted
		}
	}
	f.touch("images")
	f.s.UpdatedAt = f.now()
	return nil
}

func (f *Form) SetPrimary(i int) error {
	d := &f.s.Draft
	if i < 0 || i >= len(d.Images) {
		return apperr.NotFoundErr(fmt.Sprintf("Image %d does not exist", i))
	}
	idx := i
	d.PrimaryImageIndex = &idx
	f.touch("primaryImageIndex")
	f.s.UpdatedAt = f.now()
	return nil
}

func (f *Form) SetImageAlt(i int, alt string) error {
	d := &f.s.Draft
	if i < 0 || i >= len(d.Images) {
		return apperr.NotFoundErr(fmt.Sprintf("Image %d does not exist", i))
	}
	d.Images[i].Alt = alt
	f.s.UpdatedAt = f.now()
	return nil
}

// IsPrimary is derived from PrimaryImageIndex; entries carry no flag.
func IsPrimary(d *model.ProductDraft, i int) bool {
	return d.PrimaryImageIndex != nil && *d.PrimaryImageIndex == i
}

type Preview struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Ref       string `json:"ref"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
	Pending   bool   `json:"pending"`
}

// Previews resolves each image to something the UI can render. Persisted
// paths resolve against mediaBase; pending images are served from
// pendingBase/<handle>. Ref is the stable value that goes into the payload.
func (f *Form) Previews(mediaBase, pendingBase string) []Preview {
	d := &f.s.Draft
	out := make([]Preview, 0, len(d.Images))
	for i, img := range d.Images {
		p := Preview{Index: i, Alt: img.Alt, IsPrimary: IsPrimary(d, i)}
		switch src := img.Source.(type) {
		case model.Persisted:
			p.ID = src.ID
			p.Ref = src.RemotePath
			p.URL = ResolveMediaURL(mediaBase, src.RemotePath)
		case model.Pending:
			p.Pending = true
			p.Ref = LocalRef(src.Handle)
			p.URL = strings.TrimRight(pendingBase, "/") + "/" + src.Handle
		}
		out = append(out, p)
	}
	return out
}

// ResolveMediaURL makes a backend media path absolute. Absolute and local
// references pass through unchanged.
func ResolveMediaURL(mediaBase, path string) string {
	base := strings.TrimRight(mediaBase, "/")
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, LocalRefScheme),
		strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return base + path
	default:
		return base + "/" + path
	}
}

func (f *Form) dropFile(handle string) {
	files := f.s.Files[:0]
	for _, file := range f.s.Files {
		if file.Handle != handle {
			files = append(files, file)
		}
	}
	f.s.Files = files
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
