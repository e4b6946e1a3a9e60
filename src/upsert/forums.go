package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

type BreadcrumbsResult struct {
	TouchedSet

	Group  *models.ForumGroup
	Forums []*models.Forum

	// The deepest forum in the trail, or nil if the trail only named a group.
	Forum *models.Forum
}

func UpsertBreadcrumbs(tx *store.Tx, crumbs snapshot.ForumBreadcrumbs) (*BreadcrumbsResult, error) {
	u := newUpserter(tx, Options{})
	result := upsertBreadcrumbs(u, crumbs)
	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}

/*
The first crumb is the forum group. Every later crumb is a forum whose parent
is the crumb before it; forums directly under the group have no parent.
*/
func upsertBreadcrumbs(u *upserter, crumbs snapshot.ForumBreadcrumbs) *BreadcrumbsResult {
	result := &BreadcrumbsResult{}
	if len(crumbs) == 0 {
		return result
	}

	groupCrumb := crumbs[0]
	groupID, _ := ids.NewForumGroupID(groupCrumb.ForumID.Raw())
	groups := resolveByKey(u,
		func(g *models.ForumGroup) ids.ForumGroupID { return g.GroupID },
		[]ids.ForumGroupID{groupID},
		func(g *models.ForumGroup, id ids.ForumGroupID) { set(u, g, "GroupID", &g.GroupID, id) },
	)
	if u.err != nil {
		return result
	}
	group := groups[groupID]
	set(u, group, "Name", &group.Name, groupCrumb.Name)
	result.Group = group

	var forumIDs []ids.ForumID
	for _, crumb := range crumbs[1:] {
		forumIDs = append(forumIDs, crumb.ForumID)
	}
	forums := resolveForums(u, uniq(forumIDs))
	if u.err != nil {
		return result
	}

	var parent *models.Forum
	for _, crumb := range crumbs[1:] {
		forum := forums[crumb.ForumID]
		set(u, forum, "Name", &forum.Name, crumb.Name)
		set(u, forum, "Group", &forum.Group, group)
		set(u, forum, "Parent", &forum.Parent, parent)
		result.Forums = append(result.Forums, forum)
		parent = forum
	}
	result.Forum = parent

	return result
}

func resolveForums(u *upserter, forumIDs []ids.ForumID) map[ids.ForumID]*models.Forum {
	return resolveByKey(u,
		func(f *models.Forum) ids.ForumID { return f.ForumID },
		forumIDs,
		func(f *models.Forum, id ids.ForumID) { set(u, f, "ForumID", &f.ForumID, id) },
	)
}

type HierarchyResult struct {
	TouchedSet

	Groups []*models.ForumGroup
	Forums []*models.Forum
}

/*
UpsertForumHierarchy records the whole forum tree. Group indexes are their
position among groups, and forum indexes their position among siblings.
*/
func UpsertForumHierarchy(tx *store.Tx, h *snapshot.ForumHierarchy) (*HierarchyResult, error) {
	u := newUpserter(tx, Options{})

	var groupIDs []ids.ForumGroupID
	var forumIDs []ids.ForumID
	for _, node := range h.Nodes {
		if node.Depth == 0 {
			groupID, _ := ids.NewForumGroupID(node.ForumID.Raw())
			groupIDs = append(groupIDs, groupID)
		} else {
			forumIDs = append(forumIDs, node.ForumID)
		}
	}

	groups := resolveByKey(u,
		func(g *models.ForumGroup) ids.ForumGroupID { return g.GroupID },
		uniq(groupIDs),
		func(g *models.ForumGroup, id ids.ForumGroupID) { set(u, g, "GroupID", &g.GroupID, id) },
	)
	forums := resolveForums(u, uniq(forumIDs))
	if u.err != nil {
		return nil, u.err
	}

	result := &HierarchyResult{}
	var group *models.ForumGroup
	var stack []*models.Forum // stack[d-1] is the latest forum at depth d
	siblings := make(map[any]int)

	for _, node := range h.Nodes {
		if node.Depth == 0 {
			groupID, _ := ids.NewForumGroupID(node.ForumID.Raw())
			group = groups[groupID]
			stack = stack[:0]
			set(u, group, "Name", &group.Name, node.Name)
			set(u, group, "Index", &group.Index, len(result.Groups))
			result.Groups = append(result.Groups, group)
			continue
		}

		depth := node.Depth
		if depth > len(stack)+1 {
			depth = len(stack) + 1
		}
		stack = stack[:depth-1]

		var parent *models.Forum
		var siblingKey any = group
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
			siblingKey = parent
		}

		forum := forums[node.ForumID]
		set(u, forum, "Name", &forum.Name, node.Name)
		set(u, forum, "Group", &forum.Group, group)
		set(u, forum, "Parent", &forum.Parent, parent)
		set(u, forum, "Index", &forum.Index, siblings[siblingKey])
		siblings[siblingKey]++

		stack = append(stack, forum)
		result.Forums = append(result.Forums, forum)
	}

	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}
