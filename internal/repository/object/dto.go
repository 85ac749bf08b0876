package object

import (
	"github.com/go-openapi/strfmt"
	"github.com/spf13/cast"
	"github.com/weaviate/weaviate/entities/models"

	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
)

func toModel(class string, o domobj.Object) *models.Object {
	m := &models.Object{
		Class:      class,
		ID:         strfmt.UUID(o.ID()),
		Properties: o.Properties(),
	}
	if o.HasVector() {
		m.Vector = models.C11yVector(o.Vector())
	}
	return m
}

func fromModel(m *models.Object) domobj.Object {
	return domobj.Reconstruct(m.ID.String(), cast.ToStringMap(m.Properties), []float32(m.Vector))
}
