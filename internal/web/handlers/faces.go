package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/recognition"
)

// Enroller is the enrollment pipeline used by the faces handler.
type Enroller interface {
	Enroll(ctx context.Context, label string, images []recognition.Image) (*recognition.EnrollResult, error)
}

// Querier is the query pipeline used by the faces handler.
type Querier interface {
	QueryAll(ctx context.Context, image []byte) ([]recognition.FaceResult, error)
}

// FacesHandler handles enrollment and face classification.
type FacesHandler struct {
	enroller Enroller
	querier  Querier
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(enroller Enroller, querier Querier) *FacesHandler {
	return &FacesHandler{enroller: enroller, querier: querier}
}

// CreateFaceResponse is returned by a successful enrollment.
type CreateFaceResponse struct {
	Message string `json:"message"`
	*recognition.EnrollResult
}

// CheckFaceResponse lists one result per detected face in detection order.
type CheckFaceResponse struct {
	Result []recognition.FaceResult `json:"result"`
}

// CreateFace enrolls every uploaded image under the "label" form field.
// Files may be sent under any field name.
func (h *FacesHandler) CreateFace(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxMemoryUpload); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	label := r.FormValue(constants.LabelField)
	if label == "" {
		respondError(w, http.StatusBadRequest, constants.MessageLabelRequired)
		return
	}

	headers := uploadedFiles(r.MultipartForm)
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, constants.MessageNoImages)
		return
	}
	if len(headers) > constants.MaxImagesPerEnrollment {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("too many images: %d (max %d)", len(headers), constants.MaxImagesPerEnrollment))
		return
	}

	images := make([]recognition.Image, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		images = append(images, recognition.Image{Name: fh.Filename, Data: data})
	}

	result, err := h.enroller.Enroll(r.Context(), label, images)
	if err != nil {
		log.Printf("create-face %q: %v", sanitizeForLog(label), err)
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CreateFaceResponse{Message: constants.MessageFaceStored, EnrollResult: result})
}

// CheckFace classifies every face in the image uploaded as File1.
func (h *FacesHandler) CheckFace(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	file, header, err := r.FormFile(constants.QueryImageField)
	if err != nil {
		respondError(w, http.StatusBadRequest, constants.QueryImageField+" is required")
		return
	}
	file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	data, err := readUpload(header)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.querier.QueryAll(r.Context(), data)
	if err != nil {
		log.Printf("checkFace %q: %v", sanitizeForLog(header.Filename), err)
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckFaceResponse{Result: results})
}

// uploadedFiles returns every file of the form, ordered by field name and then
// by position within the field.
func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var files []*multipart.FileHeader
	for _, field := range fields {
		files = append(files, form.File[field]...)
	}
	return files
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s", fh.Filename)
	}
	return data, nil
}
