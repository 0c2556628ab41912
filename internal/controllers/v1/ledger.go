package v1

import (
	"net/http"
	"time"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/httputil"
	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/ryanuber/go-glob"
	"golang.org/x/exp/slices"
)

// RegisterLedgerRoutes registers the routes for the ledger with
// the RouterGroup that is passed.
func RegisterLedgerRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsLedger)
		r.GET("", GetLedgerEntries)
		r.POST("", CreateLedgerEntries)
	}

	// Entry with ID
	{
		r.OPTIONS("/:id", OptionsLedgerEntryDetail)
		r.GET("/:id", GetLedgerEntry)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Ledger
// @Success		204
// @Router			/v1/ledger [options]
func OptionsLedger(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Ledger
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIEntryID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/ledger/{id} [options]
func OptionsLedgerEntryDetail(c *gin.Context) {
	var uri URIEntryID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var entry models.LedgerEntry
	err = models.DB.First(&entry, "id = ?", uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Get ledger entry
// @Description	Returns a specific ledger entry
// @Tags			Ledger
// @Produce		json
// @Success		200	{object}	LedgerEntryResponse
// @Failure		400	{object}	LedgerEntryResponse
// @Failure		404	{object}	LedgerEntryResponse
// @Failure		500	{object}	LedgerEntryResponse
// @Param			id	path		URIEntryID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/ledger/{id} [get]
func GetLedgerEntry(c *gin.Context) {
	var uri URIEntryID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LedgerEntryResponse{
			Error: &e,
		})
		return
	}

	var entry models.LedgerEntry
	err = models.DB.First(&entry, "id = ?", uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LedgerEntryResponse{
			Error: &e,
		})
		return
	}

	data := newLedgerEntry(c, entry)
	c.JSON(http.StatusOK, LedgerEntryResponse{Data: &data})
}

// @Summary		Get ledger entries
// @Description	Returns a list of ledger entries in commit order
// @Tags			Ledger
// @Produce		json
// @Success		200	{object}	LedgerEntryListResponse
// @Failure		400	{object}	LedgerEntryListResponse
// @Failure		500	{object}	LedgerEntryListResponse
// @Router			/v1/ledger [get]
// @Param			project			query	string	false	"Filter by project ID"
// @Param			kind			query	string	false	"Filter by entry kind"
// @Param			note			query	string	false	"Filter by note. Supports globbing with *"
// @Param			budgetExceeded	query	bool	false	"Filter for entries that drove a project over budget"
// @Param			fromDate		query	string	false	"Entries at and after this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			untilDate		query	string	false	"Entries before and at this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			offset			query	uint	false	"The offset of the first entry returned. Defaults to 0."
// @Param			limit			query	int		false	"Maximum number of entries to return. Defaults to 50."
func GetLedgerEntries(c *gin.Context) {
	var filter LedgerEntryQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, LedgerEntryListResponse{
			Error: &s,
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	if filter.Kind != "" && !slices.Contains(models.LedgerEntryKinds, filter.Kind) {
		s := errKindInvalid.Error()
		c.JSON(http.StatusBadRequest, LedgerEntryListResponse{
			Error: &s,
		})
		return
	}

	model, err := filter.model()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LedgerEntryListResponse{
			Error: &e,
		})
		return
	}

	q := models.DB.Order("ledger_entries.id ASC").Where(&model, queryFields...)

	if !filter.FromDate.IsZero() {
		q = q.Where("ledger_entries.created_at >= date(?)", time.Date(filter.FromDate.Year(), filter.FromDate.Month(), filter.FromDate.Day(), 0, 0, 0, 0, time.UTC))
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("ledger_entries.created_at < date(?)", time.Date(filter.UntilDate.Year(), filter.UntilDate.Month(), filter.UntilDate.Day()+1, 0, 0, 0, 0, time.UTC))
	}

	var entries []models.LedgerEntry
	err = q.Find(&entries).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LedgerEntryListResponse{
			Error: &e,
		})
		return
	}

	// The note filter globs, which SQLite cannot do for us. Filter the
	// result set before applying pagination.
	if slices.Contains(setFields, "Note") {
		matching := make([]models.LedgerEntry, 0, len(entries))
		for _, entry := range entries {
			if glob.Glob(filter.Note, entry.Note) {
				matching = append(matching, entry)
			}
		}
		entries = matching
	}

	count := int64(len(entries))

	// Set the offset. Does not need checking since the default is 0
	if int(filter.Offset) < len(entries) {
		entries = entries[filter.Offset:]
	} else {
		entries = entries[:0]
	}

	// Default to 50 entries and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	data := make([]LedgerEntry, 0)
	for _, entry := range entries {
		data = append(data, newLedgerEntry(c, entry))
	}

	c.JSON(http.StatusOK, LedgerEntryListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Create ledger entries
// @Description	Commits manual entries like expenses, refunds and adjustments against project budgets. The response code is the highest response code number that a single commit would have caused. If it is not equal to 201, at least one entry has an error.
// @Tags			Ledger
// @Produce		json
// @Success		201		{object}	LedgerEntryCreateResponse
// @Failure		400		{object}	LedgerEntryCreateResponse
// @Failure		404		{object}	LedgerEntryCreateResponse
// @Failure		500		{object}	LedgerEntryCreateResponse
// @Param			entries	body		[]LedgerEntryEditable	true	"Entries"
// @Router			/v1/ledger [post]
func CreateLedgerEntries(c *gin.Context) {
	var editables []LedgerEntryEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), LedgerEntryCreateResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := LedgerEntryCreateResponse{}

	for _, editable := range editables {
		entry, err := models.Commit(models.DB, editable.ProjectID, editable.Amount, editable.Kind, nil, actor, editable.Note)
		// Append the error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newLedgerEntry(c, entry)
		r.Data = append(r.Data, LedgerEntryResponse{Data: &data})
	}

	c.JSON(status, r)
}
