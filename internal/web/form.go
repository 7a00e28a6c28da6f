package web

import (
	"context"
	"fmt"
	"strconv"
)

// Toast 页面提示
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive,omitempty"`
}

func successToast(action string) Toast {
	return Toast{
		Title:       "Post " + action,
		Description: fmt.Sprintf("Your post has been %s successfully.", action),
	}
}

func errorToast(verb string) Toast {
	return Toast{
		Title:       "Error",
		Description: fmt.Sprintf("There was an error %s your post.", verb),
		Destructive: true,
	}
}

// Form 表单状态；Editing 非空时提交为更新，保留原始输入以便出错时回填
type Form struct {
	Title   string `form:"title"`
	Content string `form:"content"`
	Editing string `form:"editing"`
}

func (f Form) failure() Toast {
	if f.Editing != "" {
		return errorToast("updating")
	}
	return errorToast("creating")
}

// Submit 根据是否处于编辑状态创建或更新帖子
func (f Form) Submit(ctx context.Context, api PostsAPI) (Toast, error) {
	if f.Editing != "" {
		id, err := strconv.ParseInt(f.Editing, 10, 64)
		if err != nil {
			return f.failure(), fmt.Errorf("invalid editing id %q: %w", f.Editing, err)
		}
		if _, err := api.UpdatePost(ctx, id, f.Title, f.Content); err != nil {
			return f.failure(), err
		}
		return successToast("updated"), nil
	}
	if _, err := api.CreatePost(ctx, f.Title, f.Content); err != nil {
		return f.failure(), err
	}
	return successToast("created"), nil
}
