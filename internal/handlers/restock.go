package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	applog "bakeline/internal/log"
	"bakeline/internal/restock"
)

const maxDeliveryNoteSize = 10 << 20

// ImportRestock books a supplier delivery note into stock. The note arrives
// as the "note" field of a multipart form, as PDF or plain text.
func (a *API) ImportRestock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDeliveryNoteSize+(1<<20))
	if err := r.ParseMultipartForm(maxDeliveryNoteSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	name, data, mime, err := readDeliveryNote(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := restock.Text(data, mime)
	if err != nil {
		if errors.Is(err, restock.ErrUnsupportedFormat) {
			writeJSONError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		applog.Warn(r.Context(), "delivery note extraction failed", "file", name, "error", err)
		writeJSONError(w, http.StatusUnprocessableEntity, "unable to read delivery note")
		return
	}

	result, err := restock.ImportTx(r.Context(), a.db, text)
	if err != nil {
		if errors.Is(err, restock.ErrMalformedNote) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	applog.Info(r.Context(), "delivery note imported", "file", name, "applied", len(result.Applied), "rejected", len(result.Rejected))
	writeJSON(w, http.StatusOK, result)
}

func readDeliveryNote(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("note")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, "", errors.New("note file is required")
		}
		return "", nil, "", err
	}
	defer file.Close()

	if header.Size > maxDeliveryNoteSize {
		return "", nil, "", fmt.Errorf("file exceeds %d bytes", maxDeliveryNoteSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = restock.MimeTypeFromName(header.Filename)
	}
	return header.Filename, buf.Bytes(), mime, nil
}
