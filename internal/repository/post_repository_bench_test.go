package repository

import (
    "context"
    "fmt"
    "math/rand"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"

    "github.com/d60-Lab/graphql-crud/internal/model"
)

func seedPosts(b *testing.B, repo PostRepository, n int) []int64 {
    ids := make([]int64, 0, n)
    ctx := context.Background()
    for i := 0; i < n; i++ {
        p := &model.Post{Title: fmt.Sprintf("title-%04d", i), Content: "content"}
        if err := repo.Create(ctx, p); err != nil { b.Fatalf("seed: %v", err) }
        ids = append(ids, p.ID)
    }
    return ids
}

func BenchmarkPostCreate(b *testing.B) {
    repo := NewPostRepository(setupTestDB(b))
    ctx := context.Background()
    b.ResetTimer()
    for i := 0; i < b.N; i++ {
        _ = repo.Create(ctx, &model.Post{Title: "t", Content: "c"})
    }
}

func BenchmarkPostReads(b *testing.B) {
    db := setupTestDB(b)
    base := NewPostRepository(db)
    mr, err := miniredis.Run()
    if err != nil { b.Fatalf("miniredis: %v", err) }
    defer mr.Close()
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer client.Close()
    cached := NewCachedPostRepository(base, client, time.Minute)

    // 预置 500 条帖子
    ids := seedPosts(b, base, 500)
    ctx := context.Background()
    rnd := rand.New(rand.NewSource(42))

    b.ResetTimer()
    b.Run("GetByID/NoCache", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = base.GetByID(ctx, ids[rnd.Intn(len(ids))])
        }
    })
    b.Run("GetByID/Redis", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = cached.GetByID(ctx, ids[rnd.Intn(len(ids))])
        }
    })
    b.Run("List/NoCache", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = base.List(ctx)
        }
    })
    b.Run("List/Redis", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = cached.List(ctx)
        }
    })
}
