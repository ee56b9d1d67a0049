package facematch

// ConvertPixelBBoxToRelative converts a pixel bbox [x1, y1, x2, y2] to relative (0-1) coordinates.
// Boxes that are malformed, or images without known dimensions, are returned unchanged.
func ConvertPixelBBoxToRelative(bbox []float64, width, height int) []float64 {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return bbox
	}
	return []float64{
		clamp01(bbox[0] / float64(width)),
		clamp01(bbox[1] / float64(height)),
		clamp01(bbox[2] / float64(width)),
		clamp01(bbox[3] / float64(height)),
	}
}

// ScaleBBox maps a bbox detected on a downscaled image back to original pixel coordinates.
func ScaleBBox(bbox []float64, factor float64) []float64 {
	if len(bbox) != 4 || factor <= 0 || factor == 1 {
		return bbox
	}
	return []float64{bbox[0] * factor, bbox[1] * factor, bbox[2] * factor, bbox[3] * factor}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
