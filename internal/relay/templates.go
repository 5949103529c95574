package relay

// templates holds the user-facing reply strings. The `^` character is
// the line-break convention carried through to the channels, which
// translate it to a real newline in the provider's own format.
type templates struct {
	pleaseStart        string
	betaCodeNotFound   string
	alreadyRegistered  string
	problemCreating    string
	welcome            string
	tokenComing        string
	pluginInstructions string
	help               string
	moreHelp           string
	didntUnderstand    string
	notSupported       string
	couldNotSave       string
	confirmRefresh     string
	confirmDelete      string
	resettingToken     string
	userDeleted        string
	cannotUpload       string
	imgbbNoArgument    string
	imgbbInvalidKey    string
	imgbbKeySet        string
	newVersion         string
	newVersionDesktop  string
	servicePrefix      string
}

func newTemplates(appURI string) templates {
	securityNotice := appURI + "security-notice/"
	return templates{
		pleaseStart:        "Please type /start to get started.",
		betaCodeNotFound:   "LogLink is currently in beta and as such to sign up you must start the bot with the command /start followed by your beta code. You either didn't provide a code or it wasn't recognised.^^You can apply for a beta code at " + appURI,
		alreadyRegistered:  "Your chat ID is already registered. Please delete your previous account with /delete_account_confirm and then re-register.",
		problemCreating:    "There was a problem creating your account.",
		welcome:            "Welcome to LogLink. By continuing to use LogLink you are confirming that you have read and understood the really important security and service message here (" + securityNotice + "), that you accept the risks, accept that the creator(s) accept no liability and confirm that it is suitable for your use case.",
		tokenComing:        "Your token will be sent in the next message (for easy copying). Do not share this token with anyone else.",
		pluginInstructions: "You should paste this token into your plugin settings in Logseq. See " + appURI + "setup-plugin for more information.",
		help:               "*LogLink Help Menu*^^You can use the following commands to seek help:^^/imgbb: Connect LogLink with your imgBB account to allow image uploads^/token_refresh: Generate a new token and send it to yourself^/delete_account: Delete your account^^The full instructions are at " + appURI,
		moreHelp:           "Please visit " + appURI + " for more assistance",
		didntUnderstand:    "Sorry, I didn't understand that command.",
		notSupported:       "This message type is not supported",
		couldNotSave:       "This message could not be saved",
		confirmRefresh:     "Are you sure you want to refresh your token? This will delete all messages associated with your account.^^Type /token_refresh_confirm to confirm.",
		confirmDelete:      "Are you sure you want to delete your account? This will delete all messages associated with your account.^^Type /delete_account_confirm to confirm.",
		resettingToken:     "Resetting your token.",
		userDeleted:        "Your account and all associated messages were deleted. If you want to use the service again, send another message.",
		cannotUpload:       "There was a problem uploading your message to the cloud. You may need to set your imgbb API key in the settings.^^Full instructions at " + appURI + "image-upload",
		imgbbNoArgument:    "To specify an imgbb API key, use the command /imgbb followed by your API key.^^Full instructions at " + appURI + "image-upload",
		imgbbInvalidKey:    "I tried to send a test message to imgbb using that API key but it didn't work.^^Full instructions at " + appURI + "image-upload",
		imgbbKeySet:        "Your imgbb API key has been set and you should now be able to upload images. Try it out!",
		newVersion:         "FYI, a new version of the LogLink plugin is available. Please update via the marketplace.",
		newVersionDesktop:  "FYI, a new version of the LogLink plugin is available for Logseq Desktop. Please update via the marketplace on your desktop.",
		servicePrefix:      "*SERVICE MESSAGE FROM LOGLINK*: ",
	}
}
