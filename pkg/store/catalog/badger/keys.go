package badger

// Key Namespace
// =============
//
// Entities are stored as JSON under a one-letter prefix. Relationships used
// by listings are denormalized into index keys with empty values, so that a
// prefix scan answers "children of X" without decoding unrelated rows.
//
// Data Type             Prefix   Key Format                        Value
// ======================================================================
// Folder                "f:"     f:<id>                            Folder (JSON)
// Document              "d:"     d:<id>                            Document (JSON)
// Tag                   "t:"     t:<id>                            Tag (JSON)
// User                  "u:"     u:<id>                            User (JSON)
// Child folder index    "cf:"    cf:<parentID>\x00<folderID>       empty
// Folder document index "cd:"    cd:<folderID>\x00<documentID>     empty
// Tag membership index  "td:"    td:<tagID>\x00<documentID>        empty
//
// Root-level folders and documents use the empty string as parent id. The
// NUL separator keeps a parent's prefix from matching a sibling whose id
// merely starts with the same characters.

const (
	prefixFolder   = "f:"
	prefixDocument = "d:"
	prefixTag      = "t:"
	prefixUser     = "u:"

	prefixChildFolder    = "cf:"
	prefixFolderDocument = "cd:"
	prefixTagDocument    = "td:"

	sep = "\x00"
)

func keyFolder(id string) []byte   { return []byte(prefixFolder + id) }
func keyDocument(id string) []byte { return []byte(prefixDocument + id) }
func keyTag(id string) []byte      { return []byte(prefixTag + id) }
func keyUser(id string) []byte     { return []byte(prefixUser + id) }

func parentKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func keyChildFolder(parentID *string, id string) []byte {
	return []byte(prefixChildFolder + parentKey(parentID) + sep + id)
}

func keyChildFolderPrefix(parentID *string) []byte {
	return []byte(prefixChildFolder + parentKey(parentID) + sep)
}

func keyFolderDocument(folderID *string, id string) []byte {
	return []byte(prefixFolderDocument + parentKey(folderID) + sep + id)
}

func keyFolderDocumentPrefix(folderID *string) []byte {
	return []byte(prefixFolderDocument + parentKey(folderID) + sep)
}

func keyTagDocument(tagID, id string) []byte {
	return []byte(prefixTagDocument + tagID + sep + id)
}

func keyTagDocumentPrefix(tagID string) []byte {
	return []byte(prefixTagDocument + tagID + sep)
}

// indexedID extracts the trailing entity id from an index key.
func indexedID(key, prefix []byte) string {
	return string(key[len(prefix):])
}
