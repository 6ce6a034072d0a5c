package handlers

import (
	"gorm.io/gorm"

	"github.com/casewise/casewise-api/ai"
	"github.com/casewise/casewise-api/stats"
)

type DBHandler struct {
	*gorm.DB
	Cases      *ai.Generator
	StatsCache *stats.Cache
}
