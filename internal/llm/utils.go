package llm

import (
	"encoding/base64"

	"github.com/joseph-ayodele/cv-intake/constants"
)

// DataURL encodes an image as a base64 data URL for providers that take images inline.
func DataURL(img Image) string {
	mt := img.MediaType
	if mt == "" {
		mt = constants.MediaTypeJPEG
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
