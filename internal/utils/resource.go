package utils

import (
	"fmt"
	"math"
)

// MilliCPU converts cores into the kubernetes milli-core notation, 2.0 -> "2000m".
func MilliCPU(cores float64) (string, error) {
	if math.IsNaN(cores) || math.IsInf(cores, 0) || cores <= 0 {
		return "", fmt.Errorf("cpu limit must be a positive number of cores, got %v", cores)
	}
	milli := int64(math.Round(cores * 1000))
	if milli < 1 {
		return "", fmt.Errorf("cpu limit %v is below one milli-core", cores)
	}
	return fmt.Sprintf("%dm", milli), nil
}
