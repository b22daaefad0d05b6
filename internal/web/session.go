package web

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	flashKey       = "flash"
	filterLimit    = "filter_limit"
	filterCategory = "filter_category"
	filterSort     = "filter_sort"
)

// withFlash adds the pending flash message, if any, and consumes it.
func withFlash(c *gin.Context, data ViewData) ViewData {
	if data == nil {
		data = ViewData{}
	}
	sess := sessions.Default(c)
	if v, ok := sess.Get(flashKey).(string); ok && v != "" {
		data["Flash"] = v
		sess.Delete(flashKey)
		_ = sess.Save()
	}
	return data
}

func setFlash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.Set(flashKey, msg)
	_ = sess.Save()
}

// savedFilters returns the listing filters of the previous visit.
func savedFilters(c *gin.Context) (Filters, bool) {
	sess := sessions.Default(c)
	limit, ok := sess.Get(filterLimit).(int)
	if !ok {
		return Filters{}, false
	}
	category, _ := sess.Get(filterCategory).(string)
	sort, _ := sess.Get(filterSort).(string)
	return newFilters(limit, category, sort), true
}

func saveFilters(c *gin.Context, f Filters) {
	sess := sessions.Default(c)
	sess.Set(filterLimit, f.Limit)
	sess.Set(filterCategory, f.Category)
	sess.Set(filterSort, f.Sort)
	_ = sess.Save()
}
