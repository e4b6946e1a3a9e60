package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

type PostIconListResult struct {
	TouchedSet

	Forum         *models.Forum
	PrimaryTags   []*models.ThreadTag
	SecondaryTags []*models.ThreadTag
}

func UpsertPostIconList(tx *store.Tx, list *snapshot.PostIconList) (*PostIconListResult, error) {
	u := newUpserter(tx, Options{})

	icons := append(iconRefs(list.PrimaryIcons), iconRefs(list.SecondaryIcons)...)
	tags := resolveTags(u, icons)
	if u.err != nil {
		return nil, u.err
	}

	result := &PostIconListResult{
		PrimaryTags:   tagsFor(tags, list.PrimaryIcons),
		SecondaryTags: tagsFor(tags, list.SecondaryIcons),
	}

	if forumID, ok := list.ForumID.Get(); ok {
		forums := resolveForums(u, []ids.ForumID{forumID})
		if u.err != nil {
			return nil, u.err
		}
		forum := forums[forumID]
		setTags(u, forum, "ThreadTags", &forum.ThreadTags, result.PrimaryTags)
		setTags(u, forum, "SecondaryThreadTags", &forum.SecondaryThreadTags, result.SecondaryTags)
		result.Forum = forum
	}

	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}
