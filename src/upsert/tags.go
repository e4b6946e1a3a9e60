package upsert

import (
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
)

func tagKey(icon snapshot.IconRef) string {
	if id, ok := icon.ID.Get(); ok {
		return "id:" + id
	}
	return "name:" + icon.ImageName()
}

/*
Finds or creates the thread tag for each icon. Icons with an ID match tags by
ID, and otherwise adopt a tag with the same image name that has no ID yet.
Icons without an ID match by image name.

The returned function maps an icon to its tag, and nil to nil.
*/
func resolveTags(u *upserter, icons []*snapshot.IconRef) func(*snapshot.IconRef) *models.ThreadTag {
	var tagIDs, names []string
	for _, icon := range icons {
		if icon == nil {
			continue
		}
		if id, ok := icon.ID.Get(); ok {
			tagIDs = append(tagIDs, id)
		}
		if name := icon.ImageName(); name != "" {
			names = append(names, name)
		}
	}

	byTagID := make(map[string]*models.ThreadTag)
	for _, tag := range fetchIn(u, func(t *models.ThreadTag) string { return t.TagID }, uniq(tagIDs)) {
		if _, ok := byTagID[tag.TagID]; !ok {
			byTagID[tag.TagID] = tag
		}
	}
	byName := fetchIn(u, func(t *models.ThreadTag) string { return t.ImageName }, uniq(names))

	findByName := func(name string, needNoID bool) *models.ThreadTag {
		for _, tag := range byName {
			if tag.ImageName == name && (!needNoID || tag.TagID == "") {
				return tag
			}
		}
		return nil
	}

	resolved := make(map[string]*models.ThreadTag)
	for _, icon := range icons {
		if u.err != nil {
			break
		}
		if icon == nil || (!icon.ID.Valid && icon.ImageName() == "") {
			continue
		}
		key := tagKey(*icon)
		if _, ok := resolved[key]; ok {
			continue
		}

		var tag *models.ThreadTag
		if id, ok := icon.ID.Get(); ok {
			tag = byTagID[id]
			if tag == nil {
				tag = findByName(icon.ImageName(), true)
			}
		} else {
			tag = findByName(icon.ImageName(), false)
		}
		if tag == nil {
			tag = insert[models.ThreadTag](u)
			if tag == nil {
				break
			}
			byName = append(byName, tag)
		}

		if id, ok := icon.ID.Get(); ok {
			set(u, tag, "TagID", &tag.TagID, id)
			byTagID[id] = tag
		}
		if name := icon.ImageName(); name != "" {
			set(u, tag, "ImageName", &tag.ImageName, name)
		}
		if icon.URL != nil {
			set(u, tag, "ImageURL", &tag.ImageURL, icon.URL.String())
		}
		resolved[key] = tag
	}

	return func(icon *snapshot.IconRef) *models.ThreadTag {
		if icon == nil {
			return nil
		}
		return resolved[tagKey(*icon)]
	}
}

func iconRefs(icons []snapshot.PostIcon) []*snapshot.IconRef {
	refs := make([]*snapshot.IconRef, len(icons))
	for i := range icons {
		refs[i] = &icons[i].Icon
	}
	return refs
}

func tagsFor(lookup func(*snapshot.IconRef) *models.ThreadTag, icons []snapshot.PostIcon) []*models.ThreadTag {
	var tags []*models.ThreadTag
	seen := make(map[*models.ThreadTag]bool)
	for i := range icons {
		tag := lookup(&icons[i].Icon)
		if tag != nil && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
