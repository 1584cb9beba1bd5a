package metabox

import (
	"io/fs"

	"github.com/goliatone/go-metabox/pkg/assets"
)

// AssetsFS exposes the media picker and repeater scripts so Go applications
// can serve them without a build step.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(metabox.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return assets.FS()
}
