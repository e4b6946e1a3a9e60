package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
	"git.handmade.network/hmn/forumsync/src/utils"
)

type PostsPageResult struct {
	TouchedSet

	Thread *models.Thread
	Posts  []*models.Post
}

/*
Works out the thread position of every post on a page. If any post carries its
index, the others are placed relative to the first one that does; otherwise
positions follow from the page number.
*/
func postIndexes(page *snapshot.PostsPage, postsPerPage int) []int {
	indexes := make([]int, len(page.Posts))

	anchor := -1
	for i, post := range page.Posts {
		if post.IndexInThread.Valid {
			anchor = i
			break
		}
	}

	for i, post := range page.Posts {
		switch {
		case post.IndexInThread.Valid:
			indexes[i] = post.IndexInThread.Value
		case anchor >= 0:
			indexes[i] = page.Posts[anchor].IndexInThread.Value + (i - anchor)
		default:
			indexes[i] = (page.PageNumber-1)*postsPerPage + i + 1
		}
	}
	return indexes
}

func UpsertPostsPage(tx *store.Tx, page *snapshot.PostsPage, opts Options) (*PostsPageResult, error) {
	u := newUpserter(tx, opts)

	forum := upsertBreadcrumbs(u, page.Breadcrumbs).Forum

	threads := resolveByKey(u,
		func(t *models.Thread) ids.ThreadID { return t.ThreadID },
		[]ids.ThreadID{page.ThreadID},
		func(t *models.Thread, id ids.ThreadID) { set(u, t, "ThreadID", &t.ThreadID, id) },
	)

	refs := make([]snapshot.UserRef, 0, len(page.Posts))
	postIDs := make([]ids.PostID, 0, len(page.Posts))
	for _, post := range page.Posts {
		refs = append(refs, post.Author.Ref())
		postIDs = append(postIDs, post.ID)
	}
	if author, ok := page.FilteredAuthor.Get(); ok {
		refs = append(refs, snapshot.UserRef{ID: snapshot.Some(author)})
	}
	users := resolveUsers(u, refs)
	posts := resolveByKey(u,
		func(p *models.Post) ids.PostID { return p.PostID },
		uniq(postIDs),
		func(p *models.Post, id ids.PostID) { set(u, p, "PostID", &p.PostID, id) },
	)
	if u.err != nil {
		return nil, u.err
	}

	thread := threads[page.ThreadID]
	set(u, thread, "Title", &thread.Title, page.ThreadTitle)
	set(u, thread, "Closed", &thread.Closed, page.ThreadIsClosed)
	if bookmarked, ok := page.ThreadIsBookmarked.Get(); ok {
		set(u, thread, "Bookmarked", &thread.Bookmarked, bookmarked)
	}
	if forum != nil {
		set(u, thread, "Forum", &thread.Forum, forum)
	}

	_, filtered := page.FilteredAuthor.Get()
	indexes := postIndexes(page, u.opts.postsPerPage())
	result := &PostsPageResult{Thread: thread}

	highestSeen := 0
	for i, sp := range page.Posts {
		post := posts[sp.ID]
		author := users(sp.Author.Ref())
		if author != nil {
			applySidebar(u, author, sp.Author)
		}

		set(u, post, "Thread", &post.Thread, thread)
		set(u, post, "Author", &post.Author, author)
		set(u, post, "InnerHTML", &post.InnerHTML, sp.InnerHTML)
		if postDate, ok := sp.PostDate.Get(); ok {
			setTime(u, post, "PostDate", &post.PostDate, &postDate)
		}
		set(u, post, "Editable", &post.Editable, sp.IsEditable)
		set(u, post, "Ignored", &post.Ignored, sp.IsIgnored)

		if filtered {
			set(u, post, "SingleUserIndex", &post.SingleUserIndex, indexes[i])
		} else {
			set(u, post, "ThreadIndex", &post.ThreadIndex, indexes[i])
			if sp.HasBeenSeen {
				highestSeen = utils.IntMax(highestSeen, indexes[i])
			}
		}

		result.Posts = append(result.Posts, post)
	}

	if authorID, ok := page.FilteredAuthor.Get(); ok {
		if author := users(snapshot.UserRef{ID: snapshot.Some(authorID)}); author != nil && forum != nil {
			filter := upsertThreadFilter(u, forum, author, nil)
			if filter != nil {
				set(u, filter, "NumberOfPages", &filter.NumberOfPages, page.PageCount)
			}
		}
	} else {
		set(u, thread, "NumberOfPages", &thread.NumberOfPages, page.PageCount)

		if len(indexes) > 0 {
			lastIndex := indexes[len(indexes)-1]
			totalReplies := thread.TotalReplies
			if page.PageNumber >= page.PageCount || lastIndex-1 > totalReplies {
				totalReplies = lastIndex - 1
			}
			set(u, thread, "TotalReplies", &thread.TotalReplies, utils.IntMax(totalReplies, 0))
		}

		seen := utils.IntClamp(0, utils.IntMax(thread.SeenPosts, highestSeen), thread.TotalReplies+1)
		set(u, thread, "SeenPosts", &thread.SeenPosts, seen)
	}

	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}
