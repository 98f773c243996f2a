package photos_test

import (
	"bytes"
	"errors"
	"testing"

	"sprout/internal/photos"
	"sprout/internal/testsupport"
)

// jpegHeader is enough of a JPEG preamble for content sniffing.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func newLibrary(t *testing.T) *photos.Library {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	library, err := photos.NewLibrary(cfg)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	return library
}

func TestReadUploadSniffsContentType(t *testing.T) {
	data, contentType, err := photos.ReadUpload(bytes.NewReader(jpegHeader))
	if err != nil {
		t.Fatalf("ReadUpload failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", contentType)
	}
	if !bytes.Equal(data, jpegHeader) {
		t.Fatal("upload bytes were altered")
	}

	_, contentType, err = photos.ReadUpload(bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("ReadUpload failed for png: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", contentType)
	}
}

func TestReadUploadRejectsNonImages(t *testing.T) {
	_, _, err := photos.ReadUpload(bytes.NewReader([]byte("plain text, not an image")))
	if !errors.Is(err, photos.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestReadUploadRejectsOversized(t *testing.T) {
	big := make([]byte, photos.MaxUploadBytes+1)
	copy(big, jpegHeader)
	_, _, err := photos.ReadUpload(bytes.NewReader(big))
	if !errors.Is(err, photos.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFilenameByContentType(t *testing.T) {
	name, err := photos.Filename("abc123", "image/webp")
	if err != nil {
		t.Fatalf("Filename failed: %v", err)
	}
	if name != "abc123.webp" {
		t.Fatalf("unexpected filename %q", name)
	}
	if _, err := photos.Filename("abc123", "application/pdf"); !errors.Is(err, photos.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestWriteReadRemoveRoundTrip(t *testing.T) {
	library := newLibrary(t)

	filename, err := library.Write("photo-1", "image/jpeg", jpegHeader)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filename != "photo-1.jpg" {
		t.Fatalf("unexpected filename %q", filename)
	}

	data, err := library.Read(filename)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, jpegHeader) {
		t.Fatal("read bytes differ from written bytes")
	}

	if err := library.Remove(filename); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := library.Read(filename); err == nil {
		t.Fatal("expected error reading removed photo")
	}
	if err := library.Remove(filename); err != nil {
		t.Fatalf("removing a missing photo should not error: %v", err)
	}
}

func TestReadRejectsPathEscape(t *testing.T) {
	library := newLibrary(t)
	if _, err := library.Read("../etc/passwd"); err == nil {
		t.Fatal("expected error for path escape")
	}
	if _, err := library.Read(""); err == nil {
		t.Fatal("expected error for empty filename")
	}
}
