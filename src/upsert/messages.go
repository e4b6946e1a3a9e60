package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

type PrivateMessageResult struct {
	TouchedSet

	Message *models.PrivateMessage
}

func resolveMessages(u *upserter, messageIDs []ids.PrivateMessageID) map[ids.PrivateMessageID]*models.PrivateMessage {
	return resolveByKey(u,
		func(m *models.PrivateMessage) ids.PrivateMessageID { return m.MessageID },
		uniq(messageIDs),
		func(m *models.PrivateMessage, id ids.PrivateMessageID) { set(u, m, "MessageID", &m.MessageID, id) },
	)
}

func UpsertPrivateMessage(tx *store.Tx, pm *snapshot.PrivateMessage) (*PrivateMessageResult, error) {
	u := newUpserter(tx, Options{})

	refs := []snapshot.UserRef{pm.From.Ref()}
	if to, ok := pm.To.Get(); ok {
		refs = append(refs, to)
	}
	users := resolveUsers(u, refs)
	tags := resolveTags(u, []*snapshot.IconRef{pm.Icon})
	messages := resolveMessages(u, []ids.PrivateMessageID{pm.ID})
	if u.err != nil {
		return nil, u.err
	}

	m := messages[pm.ID]
	from := users(pm.From.Ref())
	if from != nil {
		applySidebar(u, from, pm.From)
	}
	set(u, m, "Subject", &m.Subject, pm.Subject)
	set(u, m, "From", &m.From, from)
	if to, ok := pm.To.Get(); ok {
		set(u, m, "To", &m.To, users(to))
	}
	if sent, ok := pm.SentDate.Get(); ok {
		setTime(u, m, "SentDate", &m.SentDate, &sent)
	}
	set(u, m, "InnerHTML", &m.InnerHTML, pm.InnerHTML)
	set(u, m, "Seen", &m.Seen, pm.Seen)
	if replied, ok := pm.Replied.Get(); ok {
		set(u, m, "Replied", &m.Replied, replied)
	}
	if forwarded, ok := pm.Forwarded.Get(); ok {
		set(u, m, "Forwarded", &m.Forwarded, forwarded)
	}
	set(u, m, "ThreadTag", &m.ThreadTag, tags(pm.Icon))

	if u.err != nil {
		return nil, u.err
	}
	return &PrivateMessageResult{TouchedSet: *u.touched, Message: m}, nil
}

type PrivateMessageFolderResult struct {
	TouchedSet

	Folder   *models.PrivateMessageFolder
	Folders  []*models.PrivateMessageFolder
	Messages []*models.PrivateMessage
}

/*
UpsertPrivateMessageFolder records the folder list and the messages in the
current folder. Messages that used to be in the folder and are not listed are
left alone; they may have been moved rather than deleted.
*/
func UpsertPrivateMessageFolder(tx *store.Tx, folder *snapshot.PrivateMessageFolder) (*PrivateMessageFolderResult, error) {
	u := newUpserter(tx, Options{})

	folderIDs := []ids.PrivateMessageFolderID{folder.FolderID}
	for _, option := range folder.Folders {
		folderIDs = append(folderIDs, option.FolderID)
	}
	var refs []snapshot.UserRef
	var icons []*snapshot.IconRef
	var messageIDs []ids.PrivateMessageID
	for _, fm := range folder.Messages {
		refs = append(refs, fm.From)
		icons = append(icons, fm.Icon)
		messageIDs = append(messageIDs, fm.ID)
	}

	folders := resolveByKey(u,
		func(f *models.PrivateMessageFolder) ids.PrivateMessageFolderID { return f.FolderID },
		uniq(folderIDs),
		func(f *models.PrivateMessageFolder, id ids.PrivateMessageFolderID) { set(u, f, "FolderID", &f.FolderID, id) },
	)
	users := resolveUsers(u, refs)
	tags := resolveTags(u, icons)
	messages := resolveMessages(u, messageIDs)
	if u.err != nil {
		return nil, u.err
	}

	result := &PrivateMessageFolderResult{}
	for i, option := range folder.Folders {
		f := folders[option.FolderID]
		set(u, f, "Name", &f.Name, option.Name)
		set(u, f, "Index", &f.Index, i)
		result.Folders = append(result.Folders, f)
	}
	current := folders[folder.FolderID]
	set(u, current, "Name", &current.Name, folder.Name)
	result.Folder = current

	for _, fm := range folder.Messages {
		m := messages[fm.ID]
		set(u, m, "Subject", &m.Subject, fm.Subject)
		if from := users(fm.From); from != nil {
			set(u, m, "From", &m.From, from)
		}
		if sent, ok := fm.SentDate.Get(); ok {
			setTime(u, m, "SentDate", &m.SentDate, &sent)
		}
		set(u, m, "Seen", &m.Seen, fm.Seen)
		set(u, m, "Replied", &m.Replied, fm.Replied)
		set(u, m, "Forwarded", &m.Forwarded, fm.Forwarded)
		set(u, m, "ThreadTag", &m.ThreadTag, tags(fm.Icon))
		set(u, m, "Folder", &m.Folder, current)
		result.Messages = append(result.Messages, m)
	}

	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}
