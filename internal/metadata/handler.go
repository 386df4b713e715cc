package metadata

import (
	"net/http"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/SlpAus/tabula-metadata-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Form keys that describe the edit target rather than carrying a
// field value.
const (
	formKeyTargetType = "target_type"
	formKeyDatabase   = "_database"
	formKeyTable      = "_table"
	formKeyColumn     = "_column"
)

// GetEditDefaults serves the data behind the edit form: the resolved
// scope plus its current metadata, including the recovered markdown
// source for re-editing.
func GetEditDefaults(c *gin.Context) {
	target, err := ClassifyTarget(c.Query("db"), c.Query("table"), c.Query("column"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	defaults, err := GetScopeMetadata(database.DB, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to resolve metadata"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"targetType": target.Kind,
		"database":   target.Database,
		"table":      target.Table,
		"column":     target.Column,
		"defaults":   defaults,
	})
}

// SubmitEdit applies one metadata edit submitted as form fields.
func SubmitEdit(c *gin.Context) {
	kind := ScopeKind(c.PostForm(formKeyTargetType))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown target_type"})
		return
	}

	identifiers := []string{c.PostForm(formKeyDatabase), c.PostForm(formKeyTable), c.PostForm(formKeyColumn)}
	target, err := TargetFromPath(kind, identifiers[:kind.PathArity()])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	fields := make(map[string]string)
	if c.Request.PostForm == nil {
		_ = c.Request.ParseForm()
	}
	for key, values := range c.Request.PostForm {
		switch key {
		case formKeyTargetType, formKeyDatabase, formKeyTable, formKeyColumn:
			continue
		}
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	if err := ApplyEdit(database.DB, target, user.ActorFromContext(c), fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"message":  editMessage(target.Kind),
		"redirect": redirectURL(target),
	})
}

// GetInstanceSnapshot serves the whole nested metadata mapping in one
// response.
func GetInstanceSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, CacheSnapshot())
}

func editMessage(kind ScopeKind) string {
	switch kind {
	case ScopeDatabase:
		return "Database metadata updated"
	case ScopeTable:
		return "Table metadata updated"
	case ScopeColumn:
		return "Column metadata updated"
	default:
		return "Metadata updated"
	}
}

// redirectURL points the client back at the page it edited.
func redirectURL(target Target) string {
	switch target.Kind {
	case ScopeDatabase:
		return "/" + target.Database
	case ScopeTable, ScopeColumn:
		return "/" + target.Database + "/" + target.Table
	default:
		return "/"
	}
}
