package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	fileutil "uploader/internal/file"
)

var (
	errInvalidMultipart = errors.New("invalid multipart body")
	errNoFileUploaded   = errors.New("no file uploaded")
)

type incomingFile struct {
	field    string
	filename string
	data     []byte
}

// readUploads reads every file-bearing part of a multipart request. Parts
// without a filename are skipped. Nothing is registered until the whole body
// has been read, so a broken request leaves no tasks behind.
func readUploads(r *http.Request) ([]incomingFile, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidMultipart, err)
	}
	files := make([]incomingFile, 0, 1)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidMultipart, err)
		}
		rawName := part.FileName()
		if rawName == "" {
			_ = part.Close()
			continue
		}
		safeName, err := fileutil.SanitizeFilename(rawName)
		if err != nil {
			_ = part.Close()
			return nil, fmt.Errorf("%w: %q", err, rawName)
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidMultipart, err)
		}
		files = append(files, incomingFile{field: part.FormName(), filename: safeName, data: data})
	}
	if len(files) == 0 {
		return nil, errNoFileUploaded
	}
	return files, nil
}

// uploadErrorMessage maps a readUploads error onto the message returned to clients.
func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, errNoFileUploaded):
		return errNoFileUploaded.Error()
	case errors.Is(err, fileutil.ErrInvalidFilename):
		return fileutil.ErrInvalidFilename.Error()
	default:
		return errInvalidMultipart.Error()
	}
}
