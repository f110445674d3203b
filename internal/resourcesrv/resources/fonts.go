package resources

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
)

const attrFaces = "faces"

// faceSchema describes the face metadata extracted from vector font files.
// SHX shape fonts carry no parseable face data and are handled separately.
const faceSchemaJSON = `{
	"type": "object",
	"required": ["format", "faces"],
	"properties": {
		"format": {"type": "string", "minLength": 1},
		"faces": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["family"],
				"properties": {
					"family": {"type": "string", "minLength": 1},
					"style": {"type": "string"},
					"index": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var faceSchema = jsonschema.MustCompileString("faces.json", faceSchemaJSON)

// applyFacePayload folds a font's face-metadata payload into the update
// delta. Replacing the metadata of an SHX font removes the faces attribute
// instead of setting it, since SHX fonts have no face data to parse.
func applyFacePayload(delta *kvstore.Delta, payload []byte) apperrors.Error {
	if !gjson.ValidBytes(payload) {
		return ErrBadFaceMetadata.Msg(CodeBadFaceMetadata + ": payload is not valid JSON")
	}
	format := strings.ToLower(gjson.GetBytes(payload, "format").String())
	if format == "shx" {
		delta.Remove = append(delta.Remove, attrFaces)
		return nil
	}

	var doc any
	if err := jsoniter.Unmarshal(payload, &doc); err != nil {
		return ErrBadFaceMetadata.MsgErr(CodeBadFaceMetadata+": payload is not valid JSON", err)
	}
	if err := faceSchema.Validate(doc); err != nil {
		return ErrBadFaceMetadata.MsgErr(CodeBadFaceMetadata+": "+err.Error(), err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return ErrBadFaceMetadata.Msg(CodeBadFaceMetadata + ": payload is not an object")
	}
	if delta.Set == nil {
		delta.Set = kvstore.Item{}
	}
	delta.Set[attrFaces] = m[attrFaces]
	return nil
}
