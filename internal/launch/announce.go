package launch

import (
	"fmt"
	"io"
)

// NoNetworkPlaceholder is printed in place of the LAN address when no
// usable interface was found, so the URL is visibly broken instead of
// silently empty.
const NoNetworkPlaceholder = "(no network detected)"

const banner = `========================================================
         STARTING AV7 ANALYSIS SERVER...
========================================================

--------------------------------------------------------
 SUCCESS! The tool is running.

 1. YOU access it here:      http://localhost:%d
 2. OTHERS access it here:   http://%s:%d

 (Send the link in step #2 to your colleagues)
--------------------------------------------------------

 DO NOT CLOSE THIS WINDOW while the tool is being used.
`

func Announce(w io.Writer, host string, port int) {
	fmt.Fprintf(w, banner, port, host, port)
}
