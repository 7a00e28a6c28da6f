package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/internal/client"
	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTitle = "GraphQL CRUD App"

// PostsAPI 页面依赖的数据层，由 client.Client 实现
type PostsAPI interface {
	PostsState(ctx context.Context, wait time.Duration) client.State
	CreatePost(ctx context.Context, title, content string) (*client.Post, error)
	UpdatePost(ctx context.Context, id int64, title, content string) (*client.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// Handler 服务端渲染的帖子页面
type Handler struct {
	api         PostsAPI
	tmpl        *template.Template
	store       sessions.Store
	loadingWait time.Duration
}

// NewHandler secret 用于签名保存提示的 cookie
func NewHandler(api PostsAPI, loadingWait time.Duration, secret []byte) *Handler {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{Path: "/", MaxAge: 60, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return &Handler{
		api:         api,
		tmpl:        template.Must(template.ParseFS(templateFS, "templates/*.html")),
		store:       store,
		loadingWait: loadingWait,
	}
}

// Register 注册页面路由
func (h *Handler) Register(r gin.IRoutes) {
	r.Use(sessions.Sessions(sessionName, h.store))
	r.GET("/", h.Index)
	r.POST("/posts", h.Submit)
	r.POST("/posts/:id/delete", h.Delete)
}

type pageData struct {
	Title   string
	Form    Form
	Toast   *Toast
	Loading bool
	Error   string
	Posts   []client.Post
}

// Index 列表页；?edit=<id> 选中帖子并回填表单
func (h *Handler) Index(c *gin.Context) {
	selected, _ := strconv.ParseInt(c.Query("edit"), 10, 64)
	h.render(c, pageData{Toast: popFlash(c)}, selected)
}

// Submit 创建或更新；成功后重定向回首页，失败时保留表单内容
func (h *Handler) Submit(c *gin.Context) {
	var form Form
	if err := c.ShouldBind(&form); err != nil {
		form = Form{Title: c.PostForm("title"), Content: c.PostForm("content"), Editing: c.PostForm("editing")}
		toast := form.failure()
		h.render(c, pageData{Form: form, Toast: &toast}, 0)
		return
	}

	toast, err := form.Submit(c.Request.Context(), h.api)
	if err != nil {
		logger.Warn("submit post failed", zap.String("editing", form.Editing), zap.Error(err))
		h.render(c, pageData{Form: form, Toast: &toast}, 0)
		return
	}
	setFlash(c, toast)
	c.Redirect(http.StatusSeeOther, "/")
}

// Delete 直接删除，不需要确认
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		err = h.api.DeletePost(c.Request.Context(), id)
	}
	if err != nil {
		logger.Warn("delete post failed", zap.String("id", c.Param("id")), zap.Error(err))
		toast := errorToast("deleting")
		h.render(c, pageData{Toast: &toast}, 0)
		return
	}
	setFlash(c, successToast("deleted"))
	c.Redirect(http.StatusSeeOther, "/")
}

// render 读取列表状态后渲染；selected 为要编辑的帖子 id，在列表里找不到时忽略
func (h *Handler) render(c *gin.Context, page pageData, selected int64) {
	page.Title = pageTitle
	state := h.api.PostsState(c.Request.Context(), h.loadingWait)
	switch state.Status {
	case client.StatusLoading:
		page.Loading = true
	case client.StatusError:
		page.Error = state.Err.Error()
	case client.StatusSuccess:
		page.Posts = state.Posts
	}

	for _, p := range page.Posts {
		if selected != 0 && p.ID == selected {
			page.Form = Form{Title: p.Title, Content: p.Content, Editing: strconv.FormatInt(p.ID, 10)}
			break
		}
	}

	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "index.html", Data: page})
}
