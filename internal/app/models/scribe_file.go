package models

type ScribeFileKind string

const (
	ScribeFileAudio    ScribeFileKind = "audio"
	ScribeFileDocument ScribeFileKind = "document"
)

// ScribeFile is the metadata row for one uploaded evidence file. Bytes live in
// object storage under ObjectKey; InternalName carries the format extension.
type ScribeFile struct {
	ID            string                 `json:"id" bson:"_id"`
	AssociatingID string                 `json:"associatingId" bson:"associatingId"`
	Kind          ScribeFileKind         `json:"kind" bson:"kind"`
	InternalName  string                 `json:"internalName" bson:"internalName"`
	ObjectKey     string                 `json:"objectKey" bson:"objectKey"`
	UploadedBy    string                 `json:"uploadedBy,omitempty" bson:"uploadedBy,omitempty"`
	UploadDone    bool                   `json:"uploadDone" bson:"uploadDone"`
	Meta          map[string]interface{} `json:"meta,omitempty" bson:"meta,omitempty"`

	TimeModel `bson:",inline"`
}

// AudioLengthMS reads the recorded audio duration from the upload metadata.
func (f *ScribeFile) AudioLengthMS() int64 {
	if f.Meta == nil {
		return 0
	}
	switch v := f.Meta["length"].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
