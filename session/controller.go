// Package session coordinates the active contract, the selection
// state and every command dispatched against the upstream services.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/yisunguk/drawing-detector-sub003/browse"
	"github.com/yisunguk/drawing-detector-sub003/deviation"
	"github.com/yisunguk/drawing-detector-sub003/index"
	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
	"github.com/yisunguk/drawing-detector-sub003/pkg/logger"
	"github.com/yisunguk/drawing-detector-sub003/service"
)

// Selection is the process-local UI selection state. Switching the
// active contract resets the article/deviation/panel selection but
// keeps the filters; clearing filters is its own explicit command.
type Selection struct {
	ContractID    string `json:"selected_contract_id,omitempty"`
	ArticleNo     int    `json:"selected_article_no,omitempty"`
	DeviationID   string `json:"selected_deviation_id,omitempty"`
	Panel         string `json:"panel,omitempty"`
	FilterChapter int    `json:"filter_chapter,omitempty"`
	FilterStatus  string `json:"filter_status,omitempty"`
	Keyword       string `json:"search_keyword,omitempty"`
}

// ArticleView is one row of the filtered article list, carrying the
// counters behind the "Open N" badge.
type ArticleView struct {
	model.Article
	OpenCount      int `json:"open_count"`
	DeviationCount int `json:"deviation_count"`
}

// State is the snapshot served to the presentation layer.
type State struct {
	Selection Selection               `json:"selection"`
	Busy      bool                    `json:"busy"`
	LastError string                  `json:"last_error,omitempty"`
	Active    *model.ContractSummary  `json:"active,omitempty"`
	Stats     model.Stats             `json:"stats"`
	Contracts []model.ContractSummary `json:"contracts"`
}

// Controller mediates commands between the stores, the browser and the
// upstream collaborators. cmdMu serializes commands the way the
// source's single event loop did; the busy flag is advisory only, for
// the presentation layer to disable re-entrant triggers.
type Controller struct {
	api     *service.ContractAPI
	auth    *service.AuthClient
	browser *browse.Browser
	index   *index.Index
	devs    *deviation.Store

	cmdMu sync.Mutex
	busy  atomic.Bool

	stateMu   sync.RWMutex
	contracts []model.ContractSummary
	active    *model.Contract
	sel       Selection
	lastErr   string
}

func NewController(api *service.ContractAPI, auth *service.AuthClient, browser *browse.Browser) *Controller {
	return &Controller{
		api:     api,
		auth:    auth,
		browser: browser,
		index:   index.New(),
		devs:    deviation.NewStore(),
	}
}

// Browser exposes the navigation state machine for read access.
func (c *Controller) Browser() *browse.Browser { return c.browser }

// IsBusy reports whether a long-running command is in flight.
func (c *Controller) IsBusy() bool { return c.busy.Load() }

// LastError returns the single visible error slot.
func (c *Controller) LastError() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastErr
}

// finish records err in the error slot, replacing any prior message,
// and passes it through. Successful commands leave the slot cleared.
func (c *Controller) finish(err error) error {
	if err != nil {
		c.stateMu.Lock()
		c.lastErr = apperr.MessageOf(err)
		c.stateMu.Unlock()
	}
	return err
}

func (c *Controller) begin() {
	c.stateMu.Lock()
	c.lastErr = ""
	c.stateMu.Unlock()
}

// session fails fast when no one is signed in. No network call is
// attempted past this point without a valid bearer credential.
func (c *Controller) session() (*service.Session, error) {
	sess := c.auth.Current()
	if sess == nil {
		return nil, apperr.Auth("로그인이 필요합니다")
	}
	return sess, nil
}

// RefreshContracts reloads the upstream contract list.
func (c *Controller) RefreshContracts(ctx context.Context) ([]model.ContractSummary, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	contracts, err := c.api.ListContracts(ctx)
	if err != nil {
		return nil, c.finish(err)
	}

	c.stateMu.Lock()
	c.contracts = contracts
	c.stateMu.Unlock()
	return contracts, nil
}

// SelectContract makes a contract active. The article/deviation/panel
// selection is reset; the filters survive the switch.
func (c *Controller) SelectContract(ctx context.Context, id string) (*model.Contract, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()
	c.busy.Store(true)
	defer c.busy.Store(false)

	contract, err := c.reload(ctx, id)
	if err != nil {
		return nil, c.finish(err)
	}

	c.stateMu.Lock()
	c.sel.ContractID = id
	c.sel.ArticleNo = 0
	c.sel.DeviationID = ""
	c.sel.Panel = ""
	c.stateMu.Unlock()

	logger.Info(ctx, "contract selected", "contract_id", id, "articles", len(contract.Articles))
	return contract, nil
}

// reload fetches the authoritative contract detail and replaces the
// whole cache: article index, deviation store and active record. The
// visible state always reflects server-confirmed truth.
func (c *Controller) reload(ctx context.Context, id string) (*model.Contract, error) {
	contract, err := c.api.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}

	c.index.Load(contract.Chapters, contract.Articles)
	c.devs.Load(contract.Deviations)

	c.stateMu.Lock()
	c.active = contract
	c.stateMu.Unlock()
	return contract, nil
}

// Upload submits a new contract document for parsing.
func (c *Controller) Upload(ctx context.Context, contractName, filename string, file io.Reader) (string, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	if contractName == "" {
		return "", c.finish(apperr.Validation("계약서 이름을 입력해 주세요"))
	}
	if _, err := c.session(); err != nil {
		return "", c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	id, err := c.api.Upload(ctx, contractName, filename, file)
	if err != nil {
		return "", c.finish(err)
	}

	if contracts, err := c.api.ListContracts(ctx); err == nil {
		c.stateMu.Lock()
		c.contracts = contracts
		c.stateMu.Unlock()
	}

	logger.Info(ctx, "contract uploaded", "contract_id", id, "name", contractName)
	return id, nil
}

// DeleteContract removes a contract upstream. Deleting the active
// contract clears the cache and the selection; filters survive.
func (c *Controller) DeleteContract(ctx context.Context, id string) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	if _, err := c.session(); err != nil {
		return c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	if err := c.api.DeleteContract(ctx, id); err != nil {
		return c.finish(err)
	}

	c.stateMu.Lock()
	filtered := c.contracts[:0]
	for _, s := range c.contracts {
		if s.ContractID != id {
			filtered = append(filtered, s)
		}
	}
	c.contracts = filtered
	clearedActive := c.sel.ContractID == id
	if clearedActive {
		c.active = nil
		c.sel.ContractID = ""
		c.sel.ArticleNo = 0
		c.sel.DeviationID = ""
		c.sel.Panel = ""
	}
	c.stateMu.Unlock()

	if clearedActive {
		c.index.Load(nil, nil)
		c.devs.Load(nil)
	}
	return nil
}

// CreateDeviation opens a new deviation against an article. Input
// validation blocks locally; a missing session blocks before any
// network call; on success the cache is rebuilt from the server.
func (c *Controller) CreateDeviation(ctx context.Context, articleNo int, subject, initialComment string) (model.Deviation, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	if err := deviation.ValidateCreate(articleNo, subject); err != nil {
		return model.Deviation{}, c.finish(err)
	}

	c.stateMu.RLock()
	contractID := c.sel.ContractID
	c.stateMu.RUnlock()
	if contractID == "" {
		return model.Deviation{}, c.finish(apperr.Validation("계약서를 먼저 선택해 주세요"))
	}
	if _, ok := c.index.Get(articleNo); !ok {
		return model.Deviation{}, c.finish(apperr.Validation("존재하지 않는 조항입니다"))
	}

	sess, err := c.session()
	if err != nil {
		return model.Deviation{}, c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	created, err := c.api.CreateDeviation(ctx, contractID, service.DeviationRequest{
		ArticleNo:      articleNo,
		Subject:        subject,
		InitialComment: initialComment,
		AuthorRole:     sess.Role,
		AuthorName:     sess.Username,
	})
	if err != nil {
		return model.Deviation{}, c.finish(err)
	}

	if _, err := c.reload(ctx, contractID); err != nil {
		return model.Deviation{}, c.finish(err)
	}

	if confirmed, ok := c.devs.Get(created.DeviationID); ok {
		return confirmed, nil
	}
	return *created, nil
}

// AddComment appends a comment to a deviation's thread, then rebuilds
// the cache from the server.
func (c *Controller) AddComment(ctx context.Context, deviationID, content string) (model.Comment, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	if err := deviation.ValidateComment(deviationID, content); err != nil {
		return model.Comment{}, c.finish(err)
	}

	c.stateMu.RLock()
	contractID := c.sel.ContractID
	c.stateMu.RUnlock()
	if contractID == "" {
		return model.Comment{}, c.finish(apperr.Validation("계약서를 먼저 선택해 주세요"))
	}

	sess, err := c.session()
	if err != nil {
		return model.Comment{}, c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	comment, err := c.api.AddComment(ctx, contractID, deviationID, service.CommentRequest{
		Author:     sess.Role,
		AuthorName: sess.Username,
		Content:    content,
	})
	if err != nil {
		return model.Comment{}, c.finish(err)
	}

	if _, err := c.reload(ctx, contractID); err != nil {
		return model.Comment{}, c.finish(err)
	}
	return *comment, nil
}

// ToggleStatus flips a deviation between open and closed. The target
// status is computed from the cached record; two users toggling
// concurrently is last-writer-wins, as the upstream service keeps no
// version stamp.
func (c *Controller) ToggleStatus(ctx context.Context, deviationID string) (model.Deviation, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	c.stateMu.RLock()
	contractID := c.sel.ContractID
	c.stateMu.RUnlock()
	if contractID == "" {
		return model.Deviation{}, c.finish(apperr.Validation("계약서를 먼저 선택해 주세요"))
	}

	current, ok := c.devs.Get(deviationID)
	if !ok {
		return model.Deviation{}, c.finish(apperr.NotFound("특이사항을 찾을 수 없습니다"))
	}

	if _, err := c.session(); err != nil {
		return model.Deviation{}, c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	next := model.ToggledStatus(current.Status)
	if err := c.api.UpdateDeviationStatus(ctx, contractID, deviationID, next); err != nil {
		return model.Deviation{}, c.finish(err)
	}

	if _, err := c.reload(ctx, contractID); err != nil {
		return model.Deviation{}, c.finish(err)
	}

	updated, ok := c.devs.Get(deviationID)
	if !ok {
		return model.Deviation{}, c.finish(apperr.NotFound("특이사항을 찾을 수 없습니다"))
	}
	return updated, nil
}

// SelectArticle records the focused article and drops any deviation
// selection that belonged to the previous one.
func (c *Controller) SelectArticle(articleNo int) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sel.ArticleNo = articleNo
	c.sel.DeviationID = ""
}

// SelectDeviation records the focused deviation.
func (c *Controller) SelectDeviation(deviationID string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sel.DeviationID = deviationID
}

// SetPanel records the active presentation panel.
func (c *Controller) SetPanel(panel string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sel.Panel = panel
}

// SetFilters replaces the three filter axes at once. Filter changes
// never touch the article/deviation selection.
func (c *Controller) SetFilters(chapter int, status, keyword string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sel.FilterChapter = chapter
	c.sel.FilterStatus = status
	c.sel.Keyword = keyword
}

// ClearFilters is the explicit reset of all three filter axes.
func (c *Controller) ClearFilters() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sel.FilterChapter = 0
	c.sel.FilterStatus = ""
	c.sel.Keyword = ""
}

// Articles returns the filtered article list with deviation counters.
// Derived on read from the full in-memory collection.
func (c *Controller) Articles() []ArticleView {
	c.stateMu.RLock()
	f := index.Filters{Chapter: c.sel.FilterChapter, Keyword: c.sel.Keyword}
	c.stateMu.RUnlock()

	articles := c.index.Query(f)
	views := make([]ArticleView, len(articles))
	for i, a := range articles {
		views[i] = ArticleView{
			Article:        a,
			OpenCount:      c.devs.OpenCount(a.No),
			DeviationCount: len(c.devs.ByArticle(a.No)),
		}
	}
	return views
}

// Deviations returns an article's visible deviation subset under the
// current status filter.
func (c *Controller) Deviations(articleNo int) []model.Deviation {
	c.stateMu.RLock()
	status := c.sel.FilterStatus
	c.stateMu.RUnlock()
	return c.devs.Filtered(articleNo, status)
}

// ActiveContract returns the cached active contract, or nil.
func (c *Controller) ActiveContract() *model.Contract {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.active
}

// OpenBrowser starts a storage listing session scoped to the signed-in
// user's root.
func (c *Controller) OpenBrowser(ctx context.Context) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	sess, err := c.session()
	if err != nil {
		return c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	c.browser.Open(ctx, sess.Username)
	return nil
}

// BrowseTo descends into a folder or marks a file as pending.
func (c *Controller) BrowseTo(ctx context.Context, entry model.BrowseEntry) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.busy.Store(true)
	defer c.busy.Store(false)
	c.browser.Navigate(ctx, entry)
}

// BrowseUp ascends one level, bounded by the user's root.
func (c *Controller) BrowseUp(ctx context.Context) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.busy.Store(true)
	defer c.busy.Store(false)
	c.browser.Up(ctx)
}

// CloseBrowser abandons the listing session.
func (c *Controller) CloseBrowser() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.browser.Close()
}

// ConfirmBrowse promotes the pending file to the parse target, asks
// the upstream service to parse it and returns the new contract id.
func (c *Controller) ConfirmBrowse(ctx context.Context, contractName string) (string, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.begin()

	if contractName == "" {
		return "", c.finish(apperr.Validation("계약서 이름을 입력해 주세요"))
	}
	if _, err := c.session(); err != nil {
		return "", c.finish(err)
	}

	target, err := c.browser.Confirm()
	if err != nil {
		return "", c.finish(err)
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	id, err := c.api.ParseExisting(ctx, target.Path, contractName)
	if err != nil {
		return "", c.finish(err)
	}

	if contracts, err := c.api.ListContracts(ctx); err == nil {
		c.stateMu.Lock()
		c.contracts = contracts
		c.stateMu.Unlock()
	}

	logger.Info(ctx, "existing document submitted for parsing", "path", target.Path, "contract_id", id)
	return id, nil
}

// Snapshot returns the presentation-facing state.
func (c *Controller) Snapshot() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	st := State{
		Selection: c.sel,
		Busy:      c.busy.Load(),
		LastError: c.lastErr,
		Contracts: append([]model.ContractSummary(nil), c.contracts...),
	}
	if c.active != nil {
		st.Active = &model.ContractSummary{
			ContractID:    c.active.ID,
			ContractName:  c.active.Name,
			ArticlesCount: len(c.active.Articles),
		}
		st.Stats = c.active.Stats
	}
	return st
}
