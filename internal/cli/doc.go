// Package cli is the interactive terminal front end of photosync.
//
// Commands:
//
//	help               list commands
//	gallery | g        reload and show saved photos
//	camera             open the capture screen
//	capture | c        take a photo (capture screen only)
//	done               close the capture screen and return to the gallery
//	select <n>         show the photo at position n of the gallery
//	uploadall          upload every photo under a new key
//	sync               upload photos that were never uploaded
//	grant <cap>        grant camera or storage access
//	revoke <cap>       revoke camera or storage access
//	status             show screen, camera and scheduler state
//	exit | quit        leave
package cli
