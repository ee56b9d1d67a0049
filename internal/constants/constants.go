// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum multipart request size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// MaxMemoryUpload is the part of a multipart form kept in memory before spilling to disk
	MaxMemoryUpload = 32 << 20

	// MaxImagesPerEnrollment caps the number of files accepted by one enrollment request
	MaxImagesPerEnrollment = 50

	// QueryImageField is the multipart field carrying the image to classify
	QueryImageField = "File1"

	// LabelField is the multipart field carrying the enrollment label
	LabelField = "label"
)

// Request handling constants
const (
	// RequestTimeout bounds a single HTTP request, extraction included
	RequestTimeout = 2 * time.Minute
)

// Response messages kept compatible with existing clients.
const (
	MessageFaceStored     = "Face stored"
	MessageServerUp       = "Server is up and running!"
	MessageLabelRequired  = "Label is required."
	MessageNoImages       = "No images provided."
	MessageSomethingWrong = "Something went wrong"
)
