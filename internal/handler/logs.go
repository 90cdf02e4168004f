package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pm-log-viewer/internal/logs"
)

// LogsHandler exposes the log listing and retrieval endpoints.
type LogsHandler struct {
	Reader *logs.Reader
}

func NewLogsHandler(r *logs.Reader) *LogsHandler { return &LogsHandler{Reader: r} }

// ListFiles returns the names of the log files available for retrieval.
func (h *LogsHandler) ListFiles(c echo.Context) error {
	files, err := h.Reader.ListFiles()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list files failed"})
	}
	return c.JSON(http.StatusOK, files)
}

// GetFile returns the filtered tail of one log file, newest physical line
// first. The wildcard parameter may carry slashes, so logs in
// subdirectories are retrievable even though the listing stays flat.
// Query parameters: search (case-insensitive substring) and start/end
// time bounds; bounds that fail to parse are ignored rather than
// rejected. Invalid names and traversal attempts read as 404.
func (h *LogsHandler) GetFile(c echo.Context) error {
	filter := logs.Filter{Search: strings.ToLower(c.QueryParam("search"))}
	if ts, ok := logs.ParseTimeBound(c.QueryParam("start")); ok {
		filter.Start = ts
	}
	if ts, ok := logs.ParseTimeBound(c.QueryParam("end")); ok {
		filter.End = ts
	}

	lines, err := h.Reader.Retrieve(c.Param("*"), filter)
	if err != nil {
		if err == logs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read file failed"})
	}
	return c.JSON(http.StatusOK, lines)
}
