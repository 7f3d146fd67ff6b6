package drive

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// DefaultThumbnailTemplate renders placeholder thumbnails; %s receives the
// label returned by thumbnailLabel.
const DefaultThumbnailTemplate = "https://placehold.co/400x300/e2e8f0/1e3a8a?text=%s"

var extensionTypes = map[string]catalog.FileType{
	".pdf":  catalog.FileTypePDF,
	".doc":  catalog.FileTypeDOC,
	".docx": catalog.FileTypeDOCX,
	".xls":  catalog.FileTypeXLS,
	".xlsx": catalog.FileTypeXLSX,
	".ppt":  catalog.FileTypePPT,
	".pptx": catalog.FileTypePPTX,
	".txt":  catalog.FileTypeTXT,
	".csv":  catalog.FileTypeCSV,
	".jpg":  catalog.FileTypeImage,
	".jpeg": catalog.FileTypeImage,
	".png":  catalog.FileTypeImage,
	".gif":  catalog.FileTypeImage,
}

var mediaTypes = map[string]catalog.FileType{
	"application/pdf":    catalog.FileTypePDF,
	"application/msword": catalog.FileTypeDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   catalog.FileTypeDOCX,
	"application/vnd.ms-excel":                                                  catalog.FileTypeXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         catalog.FileTypeXLSX,
	"application/vnd.ms-powerpoint":                                             catalog.FileTypePPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": catalog.FileTypePPTX,
	"text/plain": catalog.FileTypeTXT,
	"text/csv":   catalog.FileTypeCSV,
	"image/jpeg": catalog.FileTypeImage,
	"image/png":  catalog.FileTypeImage,
	"image/gif":  catalog.FileTypeImage,
}

// DetectFileType derives the document category. A known filename
// extension wins; otherwise the media type decides; otherwise the type is
// unknown.
func DetectFileType(fileName, mediaType string) catalog.FileType {
	if t, ok := extensionTypes[strings.ToLower(path.Ext(fileName))]; ok {
		return t
	}
	if t, ok := mediaTypes[normalizeMediaType(mediaType)]; ok {
		return t
	}
	if strings.HasPrefix(normalizeMediaType(mediaType), "image/") {
		return catalog.FileTypeImage
	}
	return catalog.FileTypeUnknown
}

func thumbnailLabel(t catalog.FileType) string {
	switch t {
	case catalog.FileTypePDF:
		return "PDF"
	case catalog.FileTypeDOC, catalog.FileTypeDOCX:
		return "DOCX"
	case catalog.FileTypeXLS, catalog.FileTypeXLSX:
		return "XLSX"
	case catalog.FileTypePPT, catalog.FileTypePPTX:
		return "PPTX"
	case catalog.FileTypeTXT, catalog.FileTypeCSV:
		return "TXT"
	case catalog.FileTypeImage:
		return "IMG"
	default:
		return "FILE"
	}
}

func (d *Drive) thumbnailFor(t catalog.FileType) string {
	return fmt.Sprintf(d.thumbnails, thumbnailLabel(t))
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with 1024-based units and at most
// two decimals: 0 → "0 Bytes", 1536 → "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	value := float64(bytes) / math.Pow(1024, float64(i))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}
