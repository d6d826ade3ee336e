package httptransport

// User-facing messages. The storefront is Croatian, so these ship verbatim
// to the frontend.
const (
	msgTitleLength       = "Naslov mora imati izmedu 3 i 120 znakova."
	msgDescriptionLength = "Opis mora imati izmedu 10 i 5000 znakova."
	msgInvalidReplyEmail = "Email za odgovor nije ispravan."
	msgConsentRequired   = "Potrebna je privola za obradu podataka."
	msgContactFailed     = "Doslo je do greske pri slanju upita."

	msgInvalidEmail        = "Unesite ispravnu email adresu."
	msgTooManyForEmail     = "Previse zahtjeva za ovu email adresu. Pokusajte ponovno kasnije."
	msgLinkRequestFailed   = "Doslo je do greske pri slanju pristupnog linka."
	msgMissingToken        = "Nedostaje pristupni token."
	msgInvalidOrUsedToken  = "Link nije valjan ili je istekao. Zatrazi novi link."
	msgSessionCreateError  = "Doslo je do greske pri potvrdi pristupnog linka."
	msgNotLoggedIn         = "Niste prijavljeni za pregled upita."
	msgSessionExpired      = "Sesija za pregled upita je istekla. Zatrazi novi link."
	msgListInquiriesFailed = "Doslo je do greske pri dohvatu upita."

	msgProductNotFound = "Proizvod nije pronađen."

	msgInvalidBody = "Neispravan format zahtjeva."

	// msgLinkMaybeSent is the anti-enumeration reply. Every non-error outcome
	// of a link request gets this exact string so responses never reveal
	// whether an email has inquiries.
	msgLinkMaybeSent = "Ako postoji upit vezan uz ovu email adresu, poslan je link za siguran pregled upita."
)
