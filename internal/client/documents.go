package client

const postFields = `
fragment PostFields on Post {
  id
  title
  content
  createdAt
  updatedAt
}`

const (
	opGetPosts   = "GetPosts"
	opGetPost    = "GetPost"
	opCreatePost = "CreatePost"
	opUpdatePost = "UpdatePost"
	opDeletePost = "DeletePost"
)

const getPostsQuery = `query GetPosts {
  posts { ...PostFields }
}` + postFields

const getPostQuery = `query GetPost($id: Int!) {
  post(id: $id) { ...PostFields }
}` + postFields

const createPostMutation = `mutation CreatePost($title: String!, $content: String!) {
  createPost(title: $title, content: $content) { ...PostFields }
}` + postFields

const updatePostMutation = `mutation UpdatePost($id: Int!, $title: String!, $content: String!) {
  updatePost(id: $id, title: $title, content: $content) { ...PostFields }
}` + postFields

const deletePostMutation = `mutation DeletePost($id: Int!) {
  deletePost(id: $id) { id }
}`
