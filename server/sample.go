// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package server

// SampleAddresses is a fixed Israeli test set, written "street number, city".
// It mixes addresses that resolve cleanly with ones that do not.
var SampleAddresses = []string{
	"ירושלים 71, בני ברק",
	"ביאליק 82, רמת גן",
	"בלפור 93, בת ים",
	"סוקולוב 104, הרצליה",
	"ויצמן 115, כפר סבא",
	"הנשיא ויצמן 6, חדרה",
	"הרצל 17, לוד",
	"הרצל 28, רמלה",
	"אחוזה 39, רעננה",
	"כצנלסון 50, גבעתיים",
	"הגעתון 61, נהריה",
	"בן עמי 72, עכו",
	"התמרים 83, אילת",
	"הגליל 94, טבריה",
	"ירושלים 105, צפת",
	"תל חי 116, קרית שמונה",
	"שדרות הנשיא 7, דימונה",
	"הדוגית 18, יבנה",
	"ויצמן 29, נס ציונה",
	"הרצל 40, רחובות",
	"הרצל 51, אופקים",
	"מנחם בגין 62, שדרות",
	"עמק זבולון 73, מודיעין-מכבים-רעות",
	"נהר הירדן 84, בית שמש",
	"צה\"ל 95, אריאל",
	"דרך קדם 106, מעלה אדומים",
	"העצמאות 117, אור יהודה",
	"ויצמן 8, יהוד-מונוסון",
	"לוי אשכול 19, קרית אונו",
	"הזיתים 30, גבעת שמואל",
	"שדרות לכיש 41, קרית גת",
	"שדרות ירושלים 52, קרית ים",
	"קרן היסוד 63, קרית ביאליק",
	"גושן 74, קרית מוצקין",
	"דרך השלום 85, נשר",
	"הרצל 96, טירת כרמל",
	"התמר 107, יקנעם עילית",
	"נשיאי ישראל 118, כרמיאל",
	"הנשיא 9, מגדל העמק",
	"הנשיא ויצמן 20, עפולה",
	"שאול המלך 31, בית שאן",
	"חן 42, ערד",
	"נחל ציחור 53, מצפה רמון",
	"בן גוריון 64, אשקלון",
	"השקמה 75, קדימה-צורן",
	"דרך הבנים 86, פרדס חנה-כרכור",
	"המייסדים 97, זכרון יעקב",
	"העצמאות 108, בנימינה-גבעת עדה",
	"דרך רמתיים 119, הוד השרון",
	"הגליל 10, גני תקווה",
	"שדרות קק\"ל 21, כוכב יאיר",
}
