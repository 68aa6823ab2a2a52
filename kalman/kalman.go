package kalman

import "github.com/sfwa/TRICAL/estimate"

// Kalman is Kalman Filter refining a calibration estimate in place
type Kalman interface {
	// Predict propagates the estimate in s to the next step
	Predict(s *estimate.Store)
	// Update corrects the estimate in s using raw measurement z, field norm and measurement noise
	Update(s *estimate.Store, z [3]float64, norm, noise float64) error
	// Iterate runs Predict followed by Update
	Iterate(s *estimate.Store, z [3]float64, norm, noise float64) error
}
