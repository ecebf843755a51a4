package detect

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/planlens/roomscan/internal/core/domain"
)

// Service is the stateless detection engine: decode, preprocess, extract.
// Construct it once and inject it into workers; it holds no mutable state
// and is safe for concurrent use.
type Service struct {
	pre PreprocessOptions
}

func NewService(pre PreprocessOptions) *Service {
	return &Service{pre: pre}
}

// Detect runs boundary detection on a raw image buffer. Undecodable input
// maps to the InvalidImage kind; any internal fault, including a panic in
// the pipeline, maps to the Processing kind so callers always see a
// classified error instead of a crash.
func (s *Service) Detect(data []byte, params domain.DetectionParameters) (rooms []domain.Room, err error) {
	defer func() {
		if r := recover(); r != nil {
			rooms = nil
			err = domain.WrapError(domain.ErrProcessing, "detect rooms", fmt.Errorf("panic: %v", r))
		}
	}()

	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidImage, "decode image", errors.New("empty image buffer"))
	}
	img, decodeErr := imaging.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return nil, domain.WrapError(domain.ErrInvalidImage, "decode image", decodeErr)
	}

	params = params.WithDefaults()
	opts := s.pre
	opts.ThresholdWindow = params.ThresholdWindow
	opts.ThresholdBias = params.ThresholdBias

	mask := Preprocess(img, opts)
	return ExtractRooms(mask, params), nil
}
