package form

import (
	"testing"

	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func staged(handle string) model.StagedFile {
	return model.StagedFile{Handle: handle, Filename: handle + ".png", ContentType: "image/png", Data: pngHeader}
}

func persistedSession() *model.DraftSession {
	d := validDraft()
	d.Images = []model.ImageEntry{
		{Source: model.Persisted{ID: "11", RemotePath: "/media/product_images/a.jpg"}, Alt: "front"},
		{Source: model.Persisted{ID: "12", RemotePath: "/media/product_images/b.jpg"}},
	}
	one := 1
	d.PrimaryImageIndex = &one
	return Open(&d, "42", map[string]string{
		"11": "/media/product_images/a.jpg",
		"12": "/media/product_images/b.jpg",
	})
}

func TestAddImagesFirstBecomesPrimary(t *testing.T) {
	s := Open(nil, "", nil)
	f := New(s)

	handles := f.AddImages(staged("a"), staged("b"))
	assert.Equal(t, []string{"a", "b"}, handles)
	require.NotNil(t, s.Draft.PrimaryImageIndex)
	assert.Equal(t, 0, *s.Draft.PrimaryImageIndex)
	assert.Len(t, s.Files, 2)

	f.AddImages(staged("c"))
	assert.Equal(t, 0, *s.Draft.PrimaryImageIndex)
}

func TestAddImagesKeepsExistingPrimary(t *testing.T) {
	s := persistedSession()
	New(s).AddImages(staged("n"))
	assert.Equal(t, 1, *s.Draft.PrimaryImageIndex)
	assert.Len(t, s.Draft.Images, 3)
}

func TestRemovePrimaryImage(t *testing.T) {
	s := persistedSession()
	f := New(s)
	f.AddImages(staged("n"))

	require.NoError(t, f.RemoveImage(1))
	assert.Equal(t, 0, *s.Draft.PrimaryImageIndex)
	assert.Equal(t, []string{"12"}, s.Deletions)

	require.NoError(t, f.SetPrimary(1))
	require.NoError(t, f.RemoveImage(1))
	assert.Empty(t, s.Files, "pending file is unstaged with its image")
	assert.Equal(t, 0, *s.Draft.PrimaryImageIndex)

	require.NoError(t, f.RemoveImage(0))
	assert.Nil(t, s.Draft.PrimaryImageIndex)
	assert.Equal(t, []string{"12", "11"}, s.Deletions)
	assert.Empty(t, s.Draft.Images)
}

func TestRemoveEarlierImageShiftsPrimary(t *testing.T) {
	s := persistedSession()
	f := New(s)
	f.AddImages(staged("n"))
	require.NoError(t, f.SetPrimary(2))

	require.NoError(t, f.RemoveImage(0))
	assert.Equal(t, 1, *s.Draft.PrimaryImageIndex)

	require.NoError(t, f.RemoveImage(1))
	assert.Equal(t, 0, *s.Draft.PrimaryImageIndex)
}

func TestRemoveImageOutOfRange(t *testing.T) {
	f := New(Open(nil, "", nil))
	assert.True(t, apperr.IsKind(f.RemoveImage(0), apperr.NotFound))
	assert.True(t, apperr.IsKind(f.SetPrimary(-1), apperr.NotFound))
}

func TestPreviews(t *testing.T) {
	s := persistedSession()
	f := New(s)
	f.AddImages(staged("n.png"))

	previews := f.Previews("http://backend:8000/", "/api/v1/drafts/x/images/pending")
	require.Len(t, previews, 3)

	assert.Equal(t, "http://backend:8000/media/product_images/a.jpg", previews[0].URL)
	assert.Equal(t, "11", previews[0].ID)
	assert.False(t, previews[0].IsPrimary)
	assert.True(t, previews[1].IsPrimary)

	assert.True(t, previews[2].Pending)
	assert.Equal(t, "blob:n.png", previews[2].Ref)
	assert.Equal(t, "/api/v1/drafts/x/images/pending/n.png", previews[2].URL)
}

func TestResolveMediaURL(t *testing.T) {
	base := "http://localhost:8000"
	assert.Equal(t, base+"/media/x.jpg", ResolveMediaURL(base, "/media/x.jpg"))
	assert.Equal(t, base+"/media/x.jpg", ResolveMediaURL(base, "media/x.jpg"))
	assert.Equal(t, "https://cdn/x.jpg", ResolveMediaURL(base, "https://cdn/x.jpg"))
	assert.Equal(t, "blob:abc", ResolveMediaURL(base, "blob:abc"))
	assert.Equal(t, "", ResolveMediaURL(base, ""))
}

func TestStageUpload(t *testing.T) {
	f, err := StageUpload("Front.PNG", pngHeader, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Regexp(t, `^[0-9a-f-]{36}\.png$`, f.Handle)

	_, err = StageUpload("notes.txt", []byte("hello there"), 1<<20)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	_, err = StageUpload("big.png", pngHeader, 4)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))
}

func TestStageUploadLimitMessage(t *testing.T) {
	big := make([]byte, 600<<10)
	copy(big, pngHeader)

	_, err := StageUpload("big.png", big, 512<<10)
	assert.Equal(t, "big.png is larger than 512 KB", apperr.PublicMessage(err))

	_, err = StageUpload("big.png", big, 1<<20)
	require.NoError(t, err)

	_, err = StageUpload("big.png", pngHeader, 4)
	assert.Equal(t, "big.png is larger than 4 bytes", apperr.PublicMessage(err))

	assert.Equal(t, "10 MB", sizeLabel(10<<20))
	assert.Equal(t, "1.5 MB", sizeLabel(3<<19))
}
